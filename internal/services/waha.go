package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// WahaService talks to a WAHA (WhatsApp HTTP API) instance for outbound
// reminder delivery
type WahaService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewWahaService() *WahaService {
	url := os.Getenv("WAHA_BASE_URL")
	if url == "" {
		url = "http://waha:3000"
	}
	return &WahaService{
		baseURL: url,
		apiKey:  os.Getenv("WAHA_API_KEY"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a WAHA endpoint has been set up
func (s *WahaService) Configured() bool {
	return os.Getenv("WAHA_BASE_URL") != ""
}

func (s *WahaService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (s *WahaService) sendSeen(chatID string) error {
	return s.makeRequest("POST", "/api/sendSeen", map[string]string{
		"chatId":  chatID,
		"session": "default",
	})
}

func (s *WahaService) sendText(chatID, text string) error {
	return s.makeRequest("POST", "/api/sendText", map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": "default",
	})
}

// NormalizeChatID normalizes WhatsApp chat IDs by adding required suffixes
// and standardizing country codes
func NormalizeChatID(chatID string) string {
	chatID = strings.TrimSpace(chatID)

	// Group IDs pass through untouched
	if strings.HasSuffix(chatID, "@g.us") {
		return chatID
	}

	chatID = strings.TrimSuffix(chatID, "@c.us")

	// Numbers entered with a leading '0' get the default country code
	if strings.HasPrefix(chatID, "0") {
		chatID = defaultCountryCode() + strings.TrimPrefix(chatID, "0")
	}

	return chatID + "@c.us"
}

func defaultCountryCode() string {
	if code := os.Getenv("WHATSAPP_COUNTRY_CODE"); code != "" {
		return code
	}
	return "91"
}

// SendMessage marks the chat as seen and then sends the text
func (s *WahaService) SendMessage(chatID, text string) error {
	chatID = NormalizeChatID(chatID)

	if err := s.sendSeen(chatID); err != nil {
		return fmt.Errorf("failed to send seen: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := s.sendText(chatID, text); err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}

	return nil
}
