package sms

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"
)

// SMSService delivers OTP codes through the external SMS gateway. Delivery is
// out-of-band from the booking engine's perspective; a gateway failure never
// invalidates an issued code.
type SMSService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     string
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func NewSMSService() *SMSService {
	return &SMSService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: os.Getenv("SMS_GATEWAY_URL"),
		apiKey:  os.Getenv("SMS_GATEWAY_API_KEY"),
		sender:  os.Getenv("SMS_SENDER_ID"),
	}
}

// SendOTP delivers a one-time code to the given phone number.
func (s *SMSService) SendOTP(phone, code string) error {
	return s.send(phone, "Your AgriRent verification code is "+code+". It expires in 5 minutes. Do not share it.")
}

func (s *SMSService) send(phone, message string) error {
	if s.baseURL == "" {
		return errors.New("SMS_GATEWAY_URL is not set")
	}

	body, err := json.Marshal(sendRequest{
		To:      phone,
		Message: message,
		Sender:  s.sender,
	})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest("POST", s.baseURL+"/sms/send/", bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("SMS gateway returned non-OK status: " + resp.Status)
	}

	var apiResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return err
	}

	if apiResp.Status != "success" {
		return errors.New("SMS delivery failed: " + apiResp.Message)
	}

	return nil
}
