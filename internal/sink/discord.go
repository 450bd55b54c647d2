package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"weeklybot/internal/discord"
	logx "weeklybot/pkg/logx"
)

const DefaultAPIBase = "https://discord.com/api/v10"

type DiscordConfig struct {
	BotToken      string
	ApplicationID string
	APIBase       string
	Timeout       time.Duration
}

// Discord sends messages through the platform's REST API using the bot token.
type Discord struct {
	cfg   DiscordConfig
	httpc *http.Client
	log   logx.Logger
}

func NewDiscord(cfg DiscordConfig, log logx.Logger) *Discord {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Discord{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
		log:   log,
	}
}

// Send posts one message to one channel. At most one attempt; retries across
// runs are the caller's policy, not the transport's.
func (d *Discord) Send(ctx context.Context, channelID, body string) error {
	payload := struct {
		Content string `json:"content"`
	}{Content: body}
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	return d.post(ctx, http.MethodPost, path, payload)
}

// RegisterCommands overwrites the bot's global application commands with the
// single configure command. Called once at startup; a failure is the
// caller's to log, commands from a previous deploy keep working.
func (d *Discord) RegisterCommands(ctx context.Context) error {
	if d.cfg.ApplicationID == "" {
		return fmt.Errorf("application id not configured")
	}
	cmds := []map[string]any{
		{
			"name":        "configure",
			"description": "Configure the bot for this server",
			"options": []map[string]any{
				{
					"type":        discord.OptionString,
					"name":        "channel",
					"description": "The channel to send notifications to",
					"required":    true,
				},
				{
					"type":        discord.OptionBoolean,
					"name":        "boss_battle",
					"description": "Enable weekly boss battle notifications",
					"required":    false,
				},
			},
		},
	}
	path := fmt.Sprintf("/applications/%s/commands", d.cfg.ApplicationID)
	return d.post(ctx, http.MethodPut, path, cmds)
}

func (d *Discord) post(ctx context.Context, method, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	u := strings.TrimRight(d.cfg.APIBase, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+d.cfg.BotToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpc.Do(req)
	if err != nil {
		return &SendError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &SendError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(snippet))}
	}
	return nil
}
