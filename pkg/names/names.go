// Package names holds the display strings for the integer codes used on the wire.
package names

import (
	"strconv"

	"github.com/samber/lo"
)

const Unknown = "Unknown"

// Colours used by the flag and tyre tables.
const (
	ColourBlack  = "#000000"
	ColourWhite  = "#FFFFFF"
	ColourGreen  = "#00FF00"
	ColourBlue   = "#0000FF"
	ColourYellow = "#FFD700"
	ColourRed    = "#FF0000"
	ColourPurple = "#880088"
	ColourGrey   = "#4B4B4B"
)

// FlagYellow is the marshal zone flag value for a yellow flag.
const FlagYellow = 3

var teams = map[int]string{
	0:   "Mercedes",
	1:   "Ferrari",
	2:   "Red Bull Racing",
	3:   "Williams",
	4:   "Aston Martin",
	5:   "Alpine",
	6:   "RB",
	7:   "Haas",
	8:   "McLaren",
	9:   "Sauber",
	41:  "F1 Generic",
	104: "F1 Custom Team",
	143: "Art GP '23",
	144: "Campos Racing '23",
	145: "Carlin '23",
	146: "PHM '23",
	147: "DAMS '23",
	148: "Hitech '23",
	149: "MP Motorsport '23",
	150: "Prema '23",
	151: "Trident '23",
	152: "Van Amersfoort Racing '23",
	153: "Virtuosi '23",
}

var teamColours = map[int]string{
	0:   "#00C7CD",
	1:   "#FF0000",
	2:   "#0000FF",
	3:   "#5097FF",
	4:   "#00902A",
	5:   "#009BFF",
	6:   "#00446F",
	7:   "#95ACBB",
	8:   "#FFAE00",
	9:   "#980404",
	41:  "#000000",
	104: "#670498",
	255: "#670498",
}

var sessionTypes = []string{
	"Unknown",
	"Practice 1",
	"Practice 2",
	"Practice 3",
	"Short practice",
	"Qualifying 1",
	"Qualifying 2",
	"Qualifying 3",
	"Short Qualifying",
	"One-Shot Qualifying",
	"Sprint Shootout 1",
	"Sprint Shootout 2",
	"Sprint Shootout 3",
	"Short Sprint Shootout",
	"One-Shot Sprint Shootout",
	"Race",
	"Race 2",
	"Race 3",
	"Time Trial",
}

var weatherTypes = []string{"Clear", "Light Clouds", "Overcast", "Light Rain", "Heavy Rain", "Storm"}

var safetyCarStatus = []string{"No Safety Car", "Full Safety Car", "Virtual Safety Car", "Formation Lap"}

var actualCompounds = map[int]string{
	7:  "Intermediates",
	8:  "Wet",
	9:  "F1 Classic Dry",
	10: "F1 Classic Wet",
	11: "F2 Super Soft",
	12: "F2 Soft",
	13: "F2 Medium",
	14: "F2 Hard",
	15: "F2 Wet",
	16: "C5",
	17: "C4",
	18: "C3",
	19: "C2",
	20: "C1",
	21: "C0",
}

var visualCompounds = map[int]string{
	7:  "Intermediates",
	8:  "Wet",
	15: "F2 Wet",
	16: "Soft",
	17: "Medium",
	18: "Hard",
	19: "F2 Super Soft",
	20: "F2 Soft",
	21: "F2 Medium",
	22: "F2 Hard",
}

var tyreColours = map[int]string{
	0:  ColourRed,
	16: ColourRed,
	17: ColourYellow,
	18: ColourWhite,
	7:  ColourGreen,
	8:  ColourBlue,
}

var ersModes = map[int]string{
	-1: "PRIVATE",
	0:  "NONE",
	1:  "MEDIUM",
	2:  "HOTLAP",
	3:  "OVERTAKE",
}

var fuelMixes = []string{"Lean", "Standard", "Rich", "Max"}

var flagColours = []string{ColourWhite, ColourGreen, ColourBlue, ColourYellow, ColourRed}

var driverStatus = []string{"In Garage", "Flying Lap", "In Lap", "Out Lap", "On Track"}

var resultStatus = []string{
	"Invalid",
	"Inactive",
	"Active",
	"Finished",
	"Did Not Finish",
	"Disqualified",
	"Not Classified",
	"Retired",
}

var pitStatus = []string{"", "PIT", "PIT"}

var eventCodes = map[string]string{
	"SSTA": "Session Started",
	"SEND": "Session Ended",
	"FTLP": "Fastest Lap",
	"RTMT": "Retirement",
	"DRSE": "DRS Enabled",
	"DRSD": "DRS Disabled",
	"TMPT": "Team Mate In Pit",
	"CHQF": "Chequered Flag",
	"RCWN": "Race Winner",
	"PENA": "Penalty Issued",
	"SPTP": "Speed Trap Triggered",
	"STLG": "Start Lights",
	"LGOT": "Lights Out",
	"DTSV": "Drive Through Served",
	"SGSV": "Stop Go Served",
	"FLBK": "Flashback",
	"BUTN": "Button Status",
	"RDFL": "Red Flag Shown",
	"OVTK": "Overtake Occurred",
	"SCAC": "Safety Car",
	"COLL": "Collision",
}

var penaltyTypes = []string{
	"Drive through",
	"Stop Go",
	"Grid penalty",
	"Penalty reminder",
	"Time penalty",
	"Warning",
	"Disqualified",
	"Removed from formation lap",
	"Parked too long timer",
	"Tyre regulations",
	"This lap invalidated",
	"This and next lap invalidated",
	"This lap invalidated without reason",
	"This and next lap invalidated without reason",
	"This and previous lap invalidated",
	"This and previous lap invalidated without reason",
	"Retired",
	"Black flag timer",
}

func fromSlice(s []string, code int) string {
	if code < 0 || code >= len(s) {
		return Unknown
	}
	return s[code]
}

func Team(id int) string               { return lo.ValueOr(teams, id, Unknown) }
func TeamColour(id int) string         { return lo.ValueOr(teamColours, id, ColourWhite) }
func SessionType(code int) string      { return fromSlice(sessionTypes, code) }
func Weather(code int) string          { return fromSlice(weatherTypes, code) }
func SafetyCar(code int) string        { return fromSlice(safetyCarStatus, code) }
func ActualCompound(code int) string   { return lo.ValueOr(actualCompounds, code, Unknown) }
func VisualCompound(code int) string   { return lo.ValueOr(visualCompounds, code, Unknown) }
func ERSMode(code int) string          { return lo.ValueOr(ersModes, code, Unknown) }
func FuelMix(code int) string          { return fromSlice(fuelMixes, code) }
func DriverStatus(code int) string     { return fromSlice(driverStatus, code) }
func ResultStatus(code int) string     { return fromSlice(resultStatus, code) }
func PenaltyType(code int) string      { return fromSlice(penaltyTypes, code) }
func EventDescription(c string) string { return lo.ValueOr(eventCodes, c, Unknown) }

// TyreColour returns the display colour of a visual compound, white for unknown compounds.
func TyreColour(visual int) string {
	return lo.ValueOr(tyreColours, visual, ColourWhite)
}

// FlagColour returns the colour of a marshal zone flag. Values outside the table (-1 = invalid) are grey.
func FlagColour(flag int) string {
	if flag < 0 || flag >= len(flagColours) {
		return ColourGrey
	}
	return flagColours[flag]
}

// PitStatus returns "PIT" while the car is pitting or in the pit area.
func PitStatus(code int) string {
	if code < 0 || code >= len(pitStatus) {
		return ""
	}
	return pitStatus[code]
}

// PlaceholderName is the label used for drivers the game only calls "Player" or "Driver".
func PlaceholderName(team, raceNumber int) string {
	return Team(team) + "#" + strconv.Itoa(raceNumber)
}
