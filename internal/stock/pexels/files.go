package pexels

// VideoFile is one rendition of a Pexels video.
type VideoFile struct {
	ID      int64  `json:"id"`
	Quality string `json:"quality"`
	Type    string `json:"file_type"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

// ScoreVideoFile rates a rendition: 100 points when its shape matches
// orientation, plus height/10 for HD (720p and up).
func ScoreVideoFile(file VideoFile, orientation string) int {
	vertical := file.Height > file.Width
	score := 0
	switch {
	case orientation == "portrait" && vertical:
		score += 100
	case orientation == "landscape" && !vertical:
		score += 100
	}
	if file.Height >= 720 {
		score += file.Height / 10
	}
	return score
}

// BestVideoFile returns the highest scoring rendition. Ties keep the first
// file, and a file must score above zero to be chosen at all.
func BestVideoFile(files []VideoFile, orientation string) (VideoFile, bool) {
	var (
		best      VideoFile
		bestScore int
		found     bool
	)
	for _, file := range files {
		if file.Link == "" {
			continue
		}
		if score := ScoreVideoFile(file, orientation); score > bestScore {
			best, bestScore, found = file, score, true
		}
	}
	return best, found
}

type videoSearchResponse struct {
	Videos []struct {
		ID         int64       `json:"id"`
		URL        string      `json:"url"`
		Duration   float64     `json:"duration"`
		User       user        `json:"user"`
		VideoFiles []VideoFile `json:"video_files"`
	} `json:"videos"`
	TotalResults int `json:"total_results"`
}

type photoSearchResponse struct {
	Photos []struct {
		ID           int64    `json:"id"`
		URL          string   `json:"url"`
		Width        int      `json:"width"`
		Height       int      `json:"height"`
		Photographer string   `json:"photographer"`
		Alt          string   `json:"alt"`
		Src          photoSrc `json:"src"`
	} `json:"photos"`
	TotalResults int `json:"total_results"`
}

type user struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type photoSrc struct {
	Original  string `json:"original"`
	Large2x   string `json:"large2x"`
	Portrait  string `json:"portrait"`
	Landscape string `json:"landscape"`
}

func (s photoSrc) forOrientation(orientation string) string {
	preferred := s.Landscape
	if orientation == "portrait" {
		preferred = s.Portrait
	}
	for _, candidate := range []string{preferred, s.Large2x, s.Original} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
