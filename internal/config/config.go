package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings carries everything the process needs at construction time.
// Values come from the environment, optionally seeded from a local .env file.
type Settings struct {
	BotToken    string
	AdminChatID int64

	AirtableAPIKey string
	AirtableBaseID string
	TableMenu      string
	TableSales     string
	TableClients   string

	PageSize        int
	QRPayloadPrefix string

	ServiceName string
	Env         string
	MetricsAddr string
}

// Load reads settings from the environment. A missing .env file is not an error.
func Load() (Settings, error) {
	_ = godotenv.Load()

	s := Settings{
		BotToken:        os.Getenv("BOT_TOKEN"),
		AirtableAPIKey:  os.Getenv("AIRTABLE_API_KEY"),
		AirtableBaseID:  os.Getenv("AIRTABLE_BASE_ID"),
		TableMenu:       getenvDefault("TABLE_MENU", "menu_all"),
		TableSales:      getenvDefault("TABLE_SALES", "sales_skeleton"),
		TableClients:    getenvDefault("TABLE_CLIENTS", "clients_skeleton"),
		QRPayloadPrefix: getenvDefault("QR_PAYLOAD_PREFIX", "PAY"),
		ServiceName:     getenvDefault("SERVICE_NAME", "brewline"),
		Env:             getenvDefault("ENV", "dev"),
		MetricsAddr:     getenvDefault("METRICS_ADDR", ":9090"),
	}

	if s.BotToken == "" {
		return Settings{}, fmt.Errorf("config: BOT_TOKEN is required")
	}
	if s.AirtableAPIKey == "" {
		return Settings{}, fmt.Errorf("config: AIRTABLE_API_KEY is required")
	}
	if s.AirtableBaseID == "" {
		return Settings{}, fmt.Errorf("config: AIRTABLE_BASE_ID is required")
	}

	pageSize, err := intEnv("PAGE_SIZE", 4)
	if err != nil {
		return Settings{}, err
	}
	if pageSize <= 0 {
		return Settings{}, fmt.Errorf("config: PAGE_SIZE must be greater than zero")
	}
	s.PageSize = pageSize

	adminChat, err := int64Env("BOT_ADMIN_CHAT_ID", 0)
	if err != nil {
		return Settings{}, err
	}
	s.AdminChatID = adminChat

	return s, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func int64Env(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
