package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// PayPalClient はPayPal REST APIのcapture返金を叩く。
// OAuthトークンを取ってから /v2/payments/captures/{id}/refund をPOSTする。
type PayPalClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpc        *http.Client
	logger       *zap.Logger
}

func NewPayPalClient(baseURL string, clientID string, clientSecret string, logger *zap.Logger) *PayPalClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayPalClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpc:        &http.Client{Timeout: defaultTimeout},
		logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *PayPalClient) Refund(ctx context.Context, transactionRef string) (RefundResult, error) {
	if strings.TrimSpace(transactionRef) == "" {
		return RefundResult{}, errors.New("payment: transaction ref required")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		c.logger.Warn("paypal token request failed", zap.Error(err))
		return RefundResult{}, classify(err)
	}

	endpoint := fmt.Sprintf("%s/v2/payments/captures/%s/refund", c.baseURL, url.PathEscape(transactionRef))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader("{}"))
	if err != nil {
		return RefundResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("paypal refund request failed",
			zap.String("capture_id", transactionRef),
			zap.Error(err))
		return RefundResult{}, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RefundResult{}, classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("paypal refund rejected",
			zap.String("capture_id", transactionRef),
			zap.Int("status", resp.StatusCode))
		return RefundResult{}, fmt.Errorf("payment: refund rejected: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rr refundResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return RefundResult{}, fmt.Errorf("payment: bad refund response: %w", err)
	}

	c.logger.Info("paypal refund completed",
		zap.String("capture_id", transactionRef),
		zap.String("refund_id", rr.ID),
		zap.String("status", rr.Status))

	return RefundResult{RefundID: rr.ID, Status: rr.Status}, nil
}

// client_credentialsでアクセストークンを取得
func (c *PayPalClient) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("payment: token request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", errors.New("payment: empty access token")
	}
	return tr.AccessToken, nil
}

// タイムアウトは「返金されたか不明」なので専用エラーに寄せる
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
