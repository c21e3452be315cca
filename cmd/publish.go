package cmd

import (
	"errors"

	"push-relay/internal/notification"
	"push-relay/pkg/eventbus"

	"github.com/spf13/cobra"
)

var publishFlags struct {
	userID int64
	title  string
	body   string
	image  string
	route  string
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a user_notification event to the event bus",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		if cfg.GoogleProjectID == "" {
			return errors.New("GOOGLE_PROJECT_ID is required")
		}
		if publishFlags.userID <= 0 {
			return errors.New("--user must be a positive integer")
		}

		raw, eventID, err := notification.NewUserNotificationEvent(
			publishFlags.userID, publishFlags.title, publishFlags.body, publishFlags.image, publishFlags.route)
		if err != nil {
			return err
		}

		bus, err := eventbus.New(cmd.Context(), cfg.GoogleProjectID, cfg.GoogleCredentials)
		if err != nil {
			return err
		}
		defer bus.Close()

		msgID, err := bus.Publish(cmd.Context(), cfg.PubSubTopic, raw, map[string]string{"eventId": eventID})
		if err != nil {
			return err
		}

		log.WithField("eventId", eventID).Infof("Published message %s to %s", msgID, cfg.PubSubTopic)
		return nil
	},
}

func init() {
	f := publishCmd.Flags()
	f.Int64Var(&publishFlags.userID, "user", 0, "target user ID")
	f.StringVar(&publishFlags.title, "title", "", "notification title")
	f.StringVar(&publishFlags.body, "body", "", "notification body")
	f.StringVar(&publishFlags.image, "image", "", "absolute http(s) image URL")
	f.StringVar(&publishFlags.route, "route", "", "client route to open")
	_ = publishCmd.MarkFlagRequired("user")
	_ = publishCmd.MarkFlagRequired("title")
	_ = publishCmd.MarkFlagRequired("body")
}
