package probe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ffprobe wire format, limited to the entries we request.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	PixFmt      string            `json:"pix_fmt"`
	RFrameRate  string            `json:"r_frame_rate"`
	Channels    int               `json:"channels"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// imageCodecs are video codecs that indicate an embedded picture rather
// than a playable stream.
var imageCodecs = map[string]bool{
	"mjpeg": true,
	"png":   true,
	"bmp":   true,
	"gif":   true,
	"webp":  true,
}

// ParseJSON decodes ffprobe output into an Info. sizeBytes is the file's
// size on disk, used with the container duration to derive the average
// bitrate: size * 8 / duration / 1000 kbps.
func ParseJSON(data []byte, sizeBytes int64) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &Info{BitDepth: 8}

	duration, _ := strconv.ParseFloat(out.Format.Duration, 64)
	if duration > 0 {
		info.DurationS = duration
	}

	if vs := mainVideoStream(out.Streams); vs != nil {
		info.Codec = vs.CodecName
		info.Width = vs.Width
		info.Height = vs.Height
		if strings.Contains(vs.PixFmt, "10") {
			info.BitDepth = 10
		}
		info.FPS = parseFrameRate(vs.RFrameRate)
		if sizeBytes > 0 && duration > 0 {
			info.BitrateKbps = int(float64(sizeBytes) * 8 / duration / 1000)
		}
	}

	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
				info.AudioChannels = s.Channels
			}
			info.AudioLangs = append(info.AudioLangs, streamLanguage(s))
		case "subtitle":
			info.SubtitleLangs = append(info.SubtitleLangs, streamLanguage(s))
		case "video":
			if isAttachedPicture(s) {
				info.HasCoverArt = true
			}
		}
	}

	return info, nil
}

// mainVideoStream picks the first video stream that is not an embedded
// picture, falling back to the first video stream of any kind.
func mainVideoStream(streams []probeStream) *probeStream {
	var first *probeStream
	for i := range streams {
		s := &streams[i]
		if s.CodecType != "video" {
			continue
		}
		if first == nil {
			first = s
		}
		if !isAttachedPicture(s) {
			return s
		}
	}
	return first
}

func isAttachedPicture(s *probeStream) bool {
	return s.Disposition["attached_pic"] == 1 || imageCodecs[strings.ToLower(s.CodecName)]
}

func streamLanguage(s *probeStream) string {
	if lang, ok := s.Tags["language"]; ok && lang != "" {
		return lang
	}
	return "unknown"
}

// parseFrameRate converts ffprobe's "num/den" fraction to frames per
// second, returning 0 when the fraction is missing or degenerate.
func parseFrameRate(raw string) float64 {
	numStr, denStr, ok := strings.Cut(raw, "/")
	if !ok {
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	}
	num, err1 := strconv.ParseFloat(numStr, 64)
	den, err2 := strconv.ParseFloat(denStr, 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
