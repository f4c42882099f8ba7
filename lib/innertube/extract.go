package innertube

import (
	"encoding/json"
	"errors"
	"strings"

	"ytharvest/lib/htmlutil"
	"ytharvest/lib/jsontree"
)

var (
	ErrNoInitialData    = errors.New("page contains no initial data document")
	ErrNoSessionConfig  = errors.New("page contains no session configuration")
	ErrNoPlayerResponse = errors.New("page contains no player response document")
)

// markers for the embedded documents; each is followed by a JSON object
var (
	initialDataMarkers = []string{"var ytInitialData = ", "window[\"ytInitialData\"] = "}
	sessionMarkers     = []string{"ytcfg.set("}
	playerMarkers      = []string{"var ytInitialPlayerResponse = "}
)

// ExtractInitialData pulls the ytInitialData tree out of a page's
// script blocks.
func ExtractInitialData(pageHTML string) (jsontree.Document, error) {
	doc, err := extractScriptJSON(pageHTML, initialDataMarkers)
	if err != nil {
		return nil, ErrNoInitialData
	}
	return doc, nil
}

// ExtractPlayerResponse pulls the ytInitialPlayerResponse tree out of a
// watch page, which carries the full video detail used for enrichment.
func ExtractPlayerResponse(pageHTML string) (jsontree.Document, error) {
	doc, err := extractScriptJSON(pageHTML, playerMarkers)
	if err != nil {
		return nil, ErrNoPlayerResponse
	}
	return doc, nil
}

// ExtractSession pulls the ytcfg configuration object out of a page and
// reduces it to the fields continuation requests need.
func ExtractSession(pageHTML string) (Session, error) {
	cfg, err := extractScriptJSON(pageHTML, sessionMarkers)
	if err != nil {
		return Session{}, ErrNoSessionConfig
	}

	apiKey := jsontree.GetString(cfg, "INNERTUBE_API_KEY")
	if apiKey == "" {
		return Session{}, ErrNoSessionConfig
	}

	lockedSafetyMode, _ := jsontree.Get(cfg, "INNERTUBE_CONTEXT.user.lockedSafetyMode").(bool)
	useSsl, _ := jsontree.Get(cfg, "INNERTUBE_CONTEXT.request.useSsl").(bool)

	return Session{
		APIKey:           apiKey,
		ClientName:       jsontree.GetString(cfg, "INNERTUBE_CONTEXT.client.clientName"),
		ClientVersion:    jsontree.GetString(cfg, "INNERTUBE_CONTEXT.client.clientVersion"),
		LockedSafetyMode: lockedSafetyMode,
		UseSsl:           useSsl,
	}, nil
}

func extractScriptJSON(pageHTML string, markers []string) (jsontree.Document, error) {
	scripts, err := htmlutil.ScriptTexts(pageHTML)
	if err != nil {
		return nil, err
	}

	for _, script := range scripts {
		for _, marker := range markers {
			idx := strings.Index(script, marker)
			if idx < 0 {
				continue
			}
			doc, err := decodeLeadingObject(script[idx+len(marker):])
			if err != nil {
				continue
			}
			return doc, nil
		}
	}
	return nil, errors.New("marker not found")
}

// decodeLeadingObject decodes exactly one JSON object from the start of
// s, ignoring whatever trails it. This sidesteps guessing where the
// object ends inside a larger script.
func decodeLeadingObject(s string) (jsontree.Document, error) {
	s = strings.TrimLeft(s, " \t\n")
	if !strings.HasPrefix(s, "{") {
		return nil, errors.New("not a JSON object")
	}
	var doc jsontree.Document
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
