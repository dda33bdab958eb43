package grabber

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

const (
	// timestampPrefixLayout formats publish timestamps into a fixed, sortable filename prefix.
	timestampPrefixLayout = "20060102-150405"

	// maxExtensionLength bounds what is accepted as a file extension from an enclosure URL path.
	maxExtensionLength = 5
)

// buildEpisodeTasks derives the task list from the feed's episodes.
// Tasks keep feed document order. Two entries producing the same
// target filename get disambiguated with a numeric suffix so the
// later task never overwrites the earlier one.
func (s *ServiceImpl) buildEpisodeTasks(episodes []*EpisodeEntry) []*EpisodeTask {
	var (
		tasks     = make([]*EpisodeTask, 0, len(episodes))
		seenPaths = make(map[string]int64, len(episodes))
	)

	for _, entry := range episodes {
		filename := s.episodeFilename(entry)

		count := seenPaths[filename]
		seenPaths[filename] = count + 1

		if count > 0 {
			extension := path.Ext(filename)
			base := strings.TrimSuffix(filename, extension)
			filename = fmt.Sprintf("%s-%d%s", base, count+1, extension)
		}

		tasks = append(tasks, &EpisodeTask{
			ID:         uuid.NewString(),
			Entry:      entry,
			TargetPath: filepath.Join(s.cfg.OutputPath, filename),
			State:      TaskStatePending,
		})
	}

	return tasks
}

// episodeFilename derives the base filename for an episode:
// a sortable timestamp prefix, the sanitized episode title
// (or the enclosure basename when the title is empty),
// and the extension taken from the enclosure URL path.
func (s *ServiceImpl) episodeFilename(entry *EpisodeEntry) string {
	name := utils.SanitizeFilename(entry.Title)
	if name == "" {
		name = utils.SanitizeFilename(enclosureBasename(entry.EnclosureURL))
	}

	if name == "" {
		name = "episode"
	}

	name = utils.TruncateString(name, int(s.cfg.MaxFilenameLength))
	prefix := entry.PublishedAt.UTC().Format(timestampPrefixLayout)

	return utils.SetFileExtension(
		fmt.Sprintf("%s-%s", prefix, name),
		enclosureExtension(entry.EnclosureURL),
		true)
}

// enclosureBasename extracts the last path element of the enclosure URL without its extension.
func enclosureBasename(enclosureURL string) string {
	parsed, err := url.Parse(enclosureURL)
	if err != nil {
		return ""
	}

	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}

	return strings.TrimSuffix(base, path.Ext(base))
}

// enclosureExtension infers the file extension from the enclosure URL path,
// falling back to .mp3 when the path carries none.
func enclosureExtension(enclosureURL string) string {
	parsed, err := url.Parse(enclosureURL)
	if err != nil {
		return constants.ExtensionMP3
	}

	extension := strings.ToLower(path.Ext(parsed.Path))
	if extension == "" || len(extension) > maxExtensionLength {
		return constants.ExtensionMP3
	}

	return extension
}
