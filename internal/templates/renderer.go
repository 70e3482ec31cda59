package templates

import (
	"bytes"
	"fmt"
	"text/template"

	"go.uber.org/zap"
)

// Renderer рендерит шаблоны писем покупателю
type Renderer struct {
	logger           *zap.Logger
	purchaseTemplate *template.Template
}

// NewRenderer создаёт новый renderer и загружает шаблоны
func NewRenderer(logger *zap.Logger, templatesDir string) (*Renderer, error) {
	purchaseTemplate, err := template.ParseFiles(templatesDir + "/purchase_completed.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse purchase template: %w", err)
	}

	return &Renderer{
		logger:           logger,
		purchaseTemplate: purchaseTemplate,
	}, nil
}

// RenderPurchaseCompleted рендерит HTML тело письма с продуктом
func (r *Renderer) RenderPurchaseCompleted(data any) (string, error) {
	var buf bytes.Buffer
	if err := r.purchaseTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render purchase template: %w", err)
	}
	return buf.String(), nil
}
