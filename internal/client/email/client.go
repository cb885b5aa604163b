package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

type SendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client talks to the external email delivery service. Delivery is
// best-effort: callers log failures and move on.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	retryCount int
}

func NewClient(baseURL string, timeout time.Duration, retryCount int, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		retryCount: retryCount,
	}
}

func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	req := &SendRequest{To: to, Subject: subject, Body: body}

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"to":      to,
			}).Info("Retrying email send")

			time.Sleep(time.Duration(attempt) * time.Second)
		}

		err := c.sendOnce(ctx, req)
		if err == nil {
			return nil
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"to":      to,
		}).Error("Failed to send email")
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", c.retryCount+1, lastErr)
}

// SendOTPEmail builds the verification message for a freshly issued code.
func (c *Client) SendOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error {
	subject := "Your OTP Code"
	body := fmt.Sprintf("Your OTP is: %s. It expires in %d minutes.", code, int(expiresIn.Minutes()))
	return c.Send(ctx, to, subject, body)
}

func (c *Client) sendOnce(ctx context.Context, req *SendRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	url := fmt.Sprintf("%s/email/send", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	var sendResp SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !sendResp.Success {
		return fmt.Errorf("email service returned error: %s", sendResp.Message)
	}

	c.logger.WithFields(logrus.Fields{
		"to": req.To,
	}).Info("Email sent successfully")

	return nil
}
