// Package settings translates between data layer records and the face's
// colour and weather settings.
//
// The codec maps ColorConfiguration to the KEY_BACKGROUND_COLOUR and
// KEY_DATE_TIME_COLOUR hex strings and a weather snapshot to
// weather_temp_max, weather_temp_min, weather_id and an optional art asset.
// Service keeps a state.Store in step with a datalayer.Channel and forwards
// every accepted change to a Sink.
package settings
