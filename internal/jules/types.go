package jules

import "strings"

// DefaultSessionURLBase is used to build a session URL when the API
// response omits one.
const DefaultSessionURLBase = "https://jules.google.com/session/"

// Session is one unit of work tracked by the Jules API. Sessions are
// immutable snapshots; the bot only reads and compares them.
type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	State string `json:"state"`
	URL   string `json:"url"`
}

// CleanID returns the session identifier without the "sessions/"
// resource prefix the API sometimes includes.
func (s Session) CleanID() string {
	return CleanID(s.ID)
}

// Link returns the session URL, falling back to the public session page
// when the API response did not carry one.
func (s Session) Link() string {
	if s.URL != "" {
		return s.URL
	}
	return DefaultSessionURLBase + s.CleanID()
}

// CleanID strips the "sessions/" resource prefix from an identifier.
func CleanID(id string) string {
	return strings.ReplaceAll(id, "sessions/", "")
}

// Activity is one event in a session's history.
type Activity struct {
	Type       string `json:"type"`
	CreateTime string `json:"createTime"`
}

// ListSessionsResponse is the payload of GET /sessions.
type ListSessionsResponse struct {
	Sessions      []Session `json:"sessions"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// ListActivitiesResponse is the payload of GET /sessions/{id}/activities.
type ListActivitiesResponse struct {
	Activities    []Activity `json:"activities"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// CreateSessionRequest is the payload of POST /sessions.
type CreateSessionRequest struct {
	SourceContext SourceContext `json:"sourceContext"`
	Prompt        string        `json:"prompt"`
}

// SourceContext points a new session at a GitHub repository.
type SourceContext struct {
	Source            string            `json:"source"`
	GithubRepoContext GithubRepoContext `json:"githubRepoContext"`
}

// GithubRepoContext selects the branch a session starts from.
type GithubRepoContext struct {
	StartingBranch string `json:"startingBranch"`
}

// NewCreateSessionRequest builds a CreateSessionRequest for owner/repo
// starting from the given branch ("main" if empty).
func NewCreateSessionRequest(owner, repo, prompt, branch string) CreateSessionRequest {
	if branch == "" {
		branch = "main"
	}
	return CreateSessionRequest{
		SourceContext: SourceContext{
			Source:            "sources/github/" + owner + "/" + repo,
			GithubRepoContext: GithubRepoContext{StartingBranch: branch},
		},
		Prompt: prompt,
	}
}
