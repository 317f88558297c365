package email

import (
	"bytes"
	"html/template"

	"github.com/campusfound/apiserver/types"
)

// ItemAlertData holds data for the found-item alert templates.
type ItemAlertData struct {
	AppName      string
	UserName     string
	Item         types.Item
	DashboardURL string
}

const itemAlertHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>New Item Found - {{.AppName}}</title>
</head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: white; padding: 30px; border-radius: 12px; border: 1px solid #e9ecef;">
    <h1 style="color: #007bff;">{{.AppName}}</h1>
    <p>Hi <strong>{{.UserName}}</strong>,</p>
    <p>Someone just reported a found item in the <strong>{{.Item.Category}}</strong> category
       that you're subscribed to. Here are the details:</p>
    <div style="background: #f8f9fa; padding: 25px; border-radius: 10px; margin: 20px 0;">
      <div style="font-size: 22px; font-weight: bold; color: #007bff;">{{.Item.Title}}</div>
      <p><strong>Category:</strong> {{.Item.Category}}</p>
      <p><strong>Location:</strong> {{.Item.Location}}</p>
      <p><strong>Date Found:</strong> {{.Item.DateFound.Format "Monday, January 2, 2006"}}</p>
      {{if .Item.Description}}<p><strong>Description:</strong> {{.Item.Description}}</p>{{end}}
    </div>
    <p style="text-align: center;">
      <a href="{{.DashboardURL}}" style="background: #007bff; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px;">
        View Item &amp; Claim if Yours
      </a>
    </p>
    <p style="color: #6c757d; font-size: 14px;">
      This is an automated notification. Please do not reply to this email.<br>
      Manage your subscription preferences from your profile page.
    </p>
  </div>
</body>
</html>`

const itemAlertTextTemplate = `New Found Item Alert - {{.AppName}}

Hi {{.UserName}},

A new item has been found in the "{{.Item.Category}}" category that you're subscribed to:

Item: {{.Item.Title}}
Category: {{.Item.Category}}
Location: {{.Item.Location}}
Date Found: {{.Item.DateFound.Format "2006-01-02"}}
{{if .Item.Description}}Description: {{.Item.Description}}{{end}}

Visit the dashboard to view and claim this item if it's yours:
{{.DashboardURL}}

---
{{.AppName}}
This is an automated notification.`

func renderTemplate(text string, data ItemAlertData) (string, error) {
	tmpl, err := template.New("email").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
