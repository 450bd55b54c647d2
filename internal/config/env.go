package config

import "os"

// Environment variables recognized on top of the config file. Secrets live
// here so the file never has to carry them.
const (
	EnvPublicKey     = "DISCORD_PUBLIC_KEY"
	EnvBotToken      = "DISCORD_BOT_TOKEN"
	EnvApplicationID = "DISCORD_APPLICATION_ID"
	EnvSheetsAPIKey  = "SHEETS_API_KEY"
	EnvSpreadsheetID = "SHEETS_SPREADSHEET_ID"
	EnvListen        = "WEEKLYBOT_LISTEN"
)

// ApplyEnv overlays environment values onto cfg. Env wins over the file.
func ApplyEnv(cfg *Config) {
	overlay(&cfg.Discord.PublicKey, EnvPublicKey)
	overlay(&cfg.Discord.BotToken, EnvBotToken)
	overlay(&cfg.Discord.ApplicationID, EnvApplicationID)
	overlay(&cfg.Sheets.APIKey, EnvSheetsAPIKey)
	overlay(&cfg.Sheets.SpreadsheetID, EnvSpreadsheetID)
	overlay(&cfg.Listen, EnvListen)
}

func overlay(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
