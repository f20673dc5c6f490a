package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neobotlabs/neobot/app/entity"
)

const mercadoPagoName = "mercadopago"

type MercadoPagoConfig struct {
	AccessToken string
	BaseURL     string
	// NotificationURL is the public webhook URL the processor posts payment
	// notifications to.
	NotificationURL string
	HTTPTimeout     time.Duration
}

type MercadoPagoProvider struct {
	cfg    MercadoPagoConfig
	client *http.Client
}

func NewMercadoPagoProvider(cfg MercadoPagoConfig) *MercadoPagoProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.mercadopago.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &MercadoPagoProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *MercadoPagoProvider) Name() string {
	return mercadoPagoName
}

func (p *MercadoPagoProvider) CreatePixPayment(ctx context.Context, input *CreateInput) (*CreateOutput, error) {
	if strings.TrimSpace(p.cfg.AccessToken) == "" {
		return nil, errors.New("mercado pago access token is not configured")
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, errors.New("idempotency key is required")
	}

	payload := map[string]any{
		"transaction_amount": float64(input.AmountCents) / 100,
		"description":        input.Description,
		"payment_method_id":  entity.PaymentMethodPix,
		"notification_url":   p.cfg.NotificationURL,
		"external_reference": input.ExternalReference,
		"payer": map[string]string{
			"email":      input.PayerEmail,
			"first_name": input.PayerFirstName,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", input.IdempotencyKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("mercado pago create payment failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var decoded struct {
		ID                 json.Number `json:"id"`
		PointOfInteraction struct {
			TransactionData struct {
				QRCode       string `json:"qr_code"`
				QRCodeBase64 string `json:"qr_code_base64"`
			} `json:"transaction_data"`
		} `json:"point_of_interaction"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, err
	}

	qrText := strings.TrimSpace(decoded.PointOfInteraction.TransactionData.QRCode)
	qrBase64 := strings.TrimSpace(decoded.PointOfInteraction.TransactionData.QRCodeBase64)
	if qrText == "" || qrBase64 == "" {
		return nil, errors.New("mercado pago response is missing pix transaction data")
	}

	qrPNG, err := base64.StdEncoding.DecodeString(qrBase64)
	if err != nil {
		return nil, fmt.Errorf("mercado pago qr code image is not valid base64: %w", err)
	}

	return &CreateOutput{
		PaymentID:  decoded.ID.String(),
		QRCodePNG:  qrPNG,
		QRCodeText: qrText,
	}, nil
}

func (p *MercadoPagoProvider) GetPayment(ctx context.Context, paymentID string) (*entity.PaymentRecord, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, errors.New("payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mercado pago get payment failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var decoded struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		ExternalReference string      `json:"external_reference"`
		TransactionAmount float64     `json:"transaction_amount"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, err
	}

	return &entity.PaymentRecord{
		ID:                decoded.ID.String(),
		Status:            strings.TrimSpace(decoded.Status),
		ExternalReference: strings.TrimSpace(decoded.ExternalReference),
		TransactionAmount: decoded.TransactionAmount,
	}, nil
}
