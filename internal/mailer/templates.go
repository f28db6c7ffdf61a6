package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"pizza-backend/internal/models"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Welcome to Pizza App!</h1>
    <h2>Hi {{.Name}},</h2>
    <p>Thank you for registering with Pizza App!</p>
    <p>Please verify your email address by clicking the link below:</p>
    <p><a href="{{.URL}}">Verify Email</a></p>
    <p>Or copy and paste this link in your browser:</p>
    <p style="word-break: break-all;">{{.URL}}</p>
    <p>This link will expire in 24 hours.</p>
    <p>If you didn't create an account, please ignore this email.</p>
  </div>
</body>
</html>`))

var resetPasswordTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Reset Your Password</h1>
    <h2>Hi {{.Name}},</h2>
    <p>You requested to reset your password for your Pizza App account.</p>
    <p>Click the link below to reset your password:</p>
    <p><a href="{{.URL}}">Reset Password</a></p>
    <p>Or copy and paste this link in your browser:</p>
    <p style="word-break: break-all;">{{.URL}}</p>
    <p>This link will expire in 1 hour.</p>
    <p>If you didn't request a password reset, please ignore this email.</p>
  </div>
</body>
</html>`))

var orderStatusTmpl = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Order Update</h1>
    <h2>Hi {{.Name}},</h2>
    <p>Your order <strong>{{.OrderNumber}}</strong> has a new status:</p>
    <p style="font-size: 18px;"><strong>{{.Status}}</strong></p>
    <p>Thank you for ordering with Pizza App!</p>
  </div>
</body>
</html>`))

var lowStockTmpl = template.Must(template.New("lowstock").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Low Stock Alert</h1>
    <p>The following items are at or below their reorder threshold:</p>
    <table style="border-collapse: collapse; width: 100%;">
      <tr>
        <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Item</th>
        <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Category</th>
        <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Quantity</th>
        <th style="padding: 10px; border: 1px solid #ddd; text-align: left;">Threshold</th>
      </tr>
      {{range .}}
      <tr>
        <td style="padding: 10px; border: 1px solid #ddd;">{{.Name}}</td>
        <td style="padding: 10px; border: 1px solid #ddd;">{{.Category}}</td>
        <td style="padding: 10px; border: 1px solid #ddd; color: red; font-weight: bold;">{{.Quantity}}</td>
        <td style="padding: 10px; border: 1px solid #ddd;">{{.Threshold}}</td>
      </tr>
      {{end}}
    </table>
    <p>Please restock soon.</p>
  </div>
</body>
</html>`))

type linkData struct {
	Name string
	URL  string
}

func VerificationEmail(name, verificationURL string) (string, error) {
	return render(verificationTmpl, linkData{Name: name, URL: verificationURL})
}

func ResetPasswordEmail(name, resetURL string) (string, error) {
	return render(resetPasswordTmpl, linkData{Name: name, URL: resetURL})
}

func OrderStatusEmail(name, orderNumber, status string) (string, error) {
	return render(orderStatusTmpl, struct {
		Name        string
		OrderNumber string
		Status      string
	}{name, orderNumber, status})
}

func LowStockAlert(items []models.InventoryItem) (string, error) {
	return render(lowStockTmpl, items)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}
