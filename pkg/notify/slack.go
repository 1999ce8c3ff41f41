package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"k8s.io/klog/v2"
)

// SlackWebhook posts notifications to a Slack incoming webhook.
type SlackWebhook struct {
	webhookURL string
}

func NewSlackWebhook(webhookURL string) *SlackWebhook {
	return &SlackWebhook{
		webhookURL: webhookURL,
	}
}

func (s *SlackWebhook) Publish(ctx context.Context, n Notification) error {
	color := "danger"
	if n.Success {
		color = "good"
	}

	fields := make([]slack.AttachmentField, 0, len(n.Fields))
	for _, f := range n.Fields {
		fields = append(fields, slack.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: true,
		})
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{
			{
				Color:  color,
				Title:  n.Title,
				Text:   n.Text,
				Fields: fields,
			},
		},
	}

	klog.V(4).Infof("Posting notification %q", n.Title)

	err := slack.PostWebhookContext(ctx, s.webhookURL, msg)
	if err != nil {
		return fmt.Errorf("can't post notification: %w", err)
	}

	return nil
}
