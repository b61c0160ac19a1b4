// Package weather holds the weather summary shown on the face and an HTTP
// client for the weather service running next to the primary device.
package weather
