// Package datalayer carries settings records between the primary device and
// its displays.
//
// A record is the latest payload published under a logical path such as
// /watch_face_config or /weather. Payloads are small typed maps (string,
// float, int and asset fields) that encode to JSON. Large blobs, like a
// weather icon, travel separately as content-addressed assets and are
// referenced from a payload by digest.
//
// # Channels
//
// Channel is the transport contract. Two implementations exist:
//
//   - MQTTChannel maps each path to a retained topic under a prefix
//     (sunface/watch_face_config, sunface/weather) and each asset to
//     sunface/assets/<sha256>. The broker's retained message is the "current
//     record" returned by FetchCurrent.
//   - MemoryChannel attaches nodes to an in-process Hub. It backs tests and
//     single-process runs, and can simulate a slow link with a connect gate.
//
// Subscriptions outlive reconnects. Records published while a node was
// disconnected are not replayed; callers recover them with FetchCurrent.
//
// # Errors
//
// Publish fails fast with ErrUnreachable when disconnected and waits for an
// in-progress connection up to the connect timeout (ErrConnectTimeout).
// FetchAsset gives up after the asset timeout with ErrAssetUnavailable.
// Undecodable payloads surface as ErrMalformedPayload.
package datalayer
