// Package notify publishes batch completion summaries over MQTT.
//
// The scanner is a batch tool, not a long-lived service: the publisher
// connects, announces one summary on the configured topic and
// disconnects. Downstream consumers (dashboards, CI gates) use the
// retained summary to track the latest scan without polling.
//
// Notifications are disabled by default; nothing here runs unless
// mqtt.enabled is set in the configuration.
package notify
