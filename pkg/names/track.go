package names

// Track describes how the reference line of a circuit is scaled for display.
// Points are divided by Divisor and shifted by OffsetX/OffsetZ.
type Track struct {
	ID      int
	Name    string
	Divisor float64
	OffsetX float64
	OffsetZ float64
}

var tracks = []Track{
	{0, "Melbourne", 3.5, 300, 300},
	{1, "Paul Ricard", 2.5, 500, 300},
	{2, "Shanghai", 2, 300, 300},
	{3, "Sakhir (Bahrain)", 2, 600, 350},
	{4, "Catalunya", 2.5, 400, 300},
	{5, "Monaco", 2, 300, 300},
	{6, "Montreal", 3, 300, 100},
	{7, "Silverstone", 3.5, 400, 250},
	{8, "Hockenheim", 2, 300, 300},
	{9, "Hungaroring", 2.5, 400, 300},
	{10, "Spa", 3.5, 500, 350},
	{11, "Monza", 4, 400, 300},
	{12, "Singapore", 2, 400, 300},
	{13, "Suzuka", 2.5, 500, 300},
	{14, "Abu Dhabi", 2, 500, 250},
	{15, "Texas", 2, 400, 50},
	{16, "Brazil", 2, 600, 250},
	{17, "Austria", 2, 300, 300},
	{18, "Sochi", 2, 300, 300},
	{19, "Mexico", 2.5, 500, 500},
	{20, "Baku (Azerbaijan)", 3, 400, 400},
	{21, "Sakhir Short", 2, 300, 300},
	{22, "Silverstone Short", 2, 300, 300},
	{23, "Texas Short", 2, 300, 300},
	{24, "Suzuka Short", 2, 300, 300},
	{25, "Hanoi", 2, 300, 300},
	{26, "Zandvoort", 2, 500, 300},
	{27, "Imola", 2, 500, 300},
	{28, "Portimao", 2, 300, 300},
	{29, "Jeddah", 4, 500, 350},
	{30, "Miami", 2, 400, 300},
	{31, "Las Vegas", 4, 400, 300},
	{32, "Losail", 2.5, 400, 300},
}

// TrackByID returns the track with the given wire id. The game sends -1 for an unknown track.
func TrackByID(id int) (Track, bool) {
	if id < 0 || id >= len(tracks) {
		return Track{ID: id, Name: Unknown}, false
	}
	return tracks[id], true
}

func Tracks() []Track {
	ret := make([]Track, len(tracks))
	copy(ret, tracks)
	return ret
}
