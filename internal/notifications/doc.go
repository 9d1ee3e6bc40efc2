// Package notifications delivers finished-job messages to ntfy.
//
// The ntfy implementation posts a plain-text body with Title, Tags and
// Priority headers to the configured topic URL and degrades to a no-op when
// no topic is configured. The orchestrator calls NotifyJobFinished once per
// job; failures to deliver are logged and never change the job result.
package notifications
