package config

// BackendsConfig exposes the base URL of every backend service the
// dashboard talks to.
type BackendsConfig interface {
	GetAPIURL() string
	GetNotificationsURL() string
	GetVisitsURL() string
	GetTicketsURL() string
	GetAIURL() string
	GetFilesURL() string
}

type Backends struct {
	APIURL           string `envconfig:"CCJ_API_URL" default:"http://localhost:8080" validate:"required,url"`
	NotificationsURL string `envconfig:"CCJ_NOTIFICATIONS_URL" default:"http://localhost:8081" validate:"required,url"`
	VisitsURL        string `envconfig:"CCJ_VISITS_URL" default:"http://localhost:8082" validate:"required,url"`
	TicketsURL       string `envconfig:"CCJ_TICKETS_URL" default:"http://localhost:8083" validate:"required,url"`
	AIURL            string `envconfig:"CCJ_AI_URL" default:"http://localhost:8084" validate:"required,url"`
	FilesURL         string `envconfig:"CCJ_FILES_URL" default:"http://localhost:8085" validate:"required,url"`
}

var _ BackendsConfig = Backends{}

func (b Backends) GetAPIURL() string           { return b.APIURL }
func (b Backends) GetNotificationsURL() string { return b.NotificationsURL }
func (b Backends) GetVisitsURL() string        { return b.VisitsURL }
func (b Backends) GetTicketsURL() string       { return b.TicketsURL }
func (b Backends) GetAIURL() string            { return b.AIURL }
func (b Backends) GetFilesURL() string         { return b.FilesURL }
