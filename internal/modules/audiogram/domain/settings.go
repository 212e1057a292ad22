package domain

// Settings is the single "last used" record: where subject folders are
// written and which theme the front end picked.
type Settings struct {
	SavePath string `json:"save_path"`
	Theme    string `json:"theme"`
}
