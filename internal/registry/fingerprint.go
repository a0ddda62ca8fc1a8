package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint derives the stable identity of an episode within a podcast.
// The GUID is preferred; feeds that omit one fall back to the enclosure URL.
// The owning podcast id is mixed in so identical GUIDs across feeds never
// collide.
func Fingerprint(podcastID int64, guid, audioURL string) string {
	key := strings.TrimSpace(guid)
	if key == "" {
		key = strings.TrimSpace(audioURL)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", podcastID, key)))
	return hex.EncodeToString(sum[:])
}
