package captions

// Style describes how captions are drawn. Static styles are burned as ASS
// subtitles in one pass; animated styles are rendered per frame.
type Style struct {
	Name       string
	Animated   bool
	Animation  string
	FontFile   string
	FontSize   float64
	Fill       string
	Outline    string
	Highlight  string
	Position   string
	MaxChars   int
	ShortLines bool
}

const (
	AnimationPop     = "pop"
	AnimationKaraoke = "karaoke"
	AnimationFade    = "fade"

	PositionBottom = "bottom"
	PositionCenter = "center"
)

const defaultMaxChars = 42

var styles = map[string]Style{
	"subtitle": {
		Name:     "subtitle",
		FontFile: "Inter-SemiBold.ttf",
		FontSize: 48,
		Fill:     "#FFFFFF",
		Outline:  "#000000",
		Position: PositionBottom,
		MaxChars: defaultMaxChars,
	},
	"minimal": {
		Name:     "minimal",
		FontFile: "Inter-Regular.ttf",
		FontSize: 40,
		Fill:     "#F5F5F5",
		Outline:  "#1A1A1A",
		Position: PositionBottom,
		MaxChars: defaultMaxChars,
	},
	"bold": {
		Name:       "bold",
		Animated:   true,
		Animation:  AnimationPop,
		FontFile:   "Montserrat-ExtraBold.ttf",
		FontSize:   72,
		Fill:       "#FFFFFF",
		Outline:    "#000000",
		Highlight:  "#FFD700",
		Position:   PositionCenter,
		MaxChars:   20,
		ShortLines: true,
	},
	"karaoke": {
		Name:       "karaoke",
		Animated:   true,
		Animation:  AnimationKaraoke,
		FontFile:   "Montserrat-Bold.ttf",
		FontSize:   64,
		Fill:       "#FFFFFF",
		Outline:    "#000000",
		Highlight:  "#00E5FF",
		Position:   PositionBottom,
		MaxChars:   24,
		ShortLines: true,
	},
	"neon": {
		Name:       "neon",
		Animated:   true,
		Animation:  AnimationFade,
		FontFile:   "Montserrat-Bold.ttf",
		FontSize:   64,
		Fill:       "#39FF14",
		Outline:    "#003300",
		Highlight:  "#CCFFCC",
		Position:   PositionCenter,
		MaxChars:   24,
		ShortLines: true,
	},
}

// GetStyle resolves a style name, falling back to the plain subtitle style.
func GetStyle(name string) Style {
	if s, ok := styles[name]; ok {
		return s
	}
	return styles["subtitle"]
}
