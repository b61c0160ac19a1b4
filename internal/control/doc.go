// Package control implements the primary device's side of the settings
// link: publishing colours, following a colour file, pushing weather and
// listening to what the displays receive. The facectl command is a thin
// cobra shell over it.
package control
