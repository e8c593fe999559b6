// Package report renders Monitor measurements for people.
//
// Text formats a Report as the plain-text table printed by overdrawmon:
//
//	Screen 1920x1080
//
//	Main 1920x1080  Local: 2.000 / 2.500  Global: 2.000 / 2.500
//	HUD 1920x1080  Local: 0.310 / 0.310  Global: 0.310 / 0.310
//
//	Total  Global: 2.310 / 2.810
//
// Chart draws the history series as stacked bands of one-pixel columns.
// Columns above the series standard (4x for Total, 3x for surfaces) are
// red, the rest green, with guides at 1x through 5x.
package report
