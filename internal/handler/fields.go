package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Declared field sets per payload shape. A fields query parameter is
// intersected with the declared set; names outside it are ignored.
var (
	userFields = []string{
		"id", "username", "email", "is_online", "last_activity",
		"total_games_played", "best_score", "profile_photo_url",
		"bio", "favorite_score", "location", "date_joined",
	}
	onlinePlayerFields = []string{
		"id", "username", "best_score", "total_games_played",
		"last_ping", "current_game",
	}
	leaderboardFields = []string{
		"rank", "user_id", "username", "score", "date_achieved",
		"profile_photo_url",
	}
	summaryFields = []string{
		"id", "username", "best_score", "total_games_played",
		"is_online", "rank",
	}
)

// requestedFields parses the fields query parameter into a set, or nil
// when absent
func requestedFields(r *http.Request) map[string]bool {
	raw := r.URL.Query().Get("fields")
	if raw == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// selectFields projects v down to the requested field names. The
// projection goes through the JSON form so the visible field names match
// what the endpoint serves. When no requested name is declared, the full
// payload is returned unchanged.
func selectFields(v interface{}, declared []string, requested map[string]bool) interface{} {
	if requested == nil {
		return v
	}

	allowed := make(map[string]bool, len(requested))
	for _, name := range declared {
		if requested[name] {
			allowed[name] = true
		}
	}
	if len(allowed) == 0 {
		return v
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var list []map[string]interface{}
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]map[string]interface{}, len(list))
		for i, item := range list {
			out[i] = filterMap(item, allowed)
		}
		return out
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		return filterMap(obj, allowed)
	}

	return v
}

func filterMap(m map[string]interface{}, allowed map[string]bool) map[string]interface{} {
	out := make(map[string]interface{}, len(allowed))
	for key, value := range m {
		if allowed[key] {
			out[key] = value
		}
	}
	return out
}
