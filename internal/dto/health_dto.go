package dto

type StorageStats struct {
	Mode         string `json:"mode"`
	Durable      string `json:"durable,omitempty"`
	Connected    bool   `json:"connected"`
	Users        int64  `json:"users"`
	Applications int64  `json:"applications"`
	Sessions     int64  `json:"sessions"`
}

type HealthResponse struct {
	Status      string          `json:"status"`
	Version     string          `json:"version"`
	Environment string          `json:"environment"`
	Uptime      float64         `json:"uptime"`
	Timestamp   string          `json:"timestamp"`
	Storage     StorageStats    `json:"storage"`
	Features    map[string]bool `json:"features"`
}

type EndpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Auth        string `json:"auth"`
	Description string `json:"description"`
}

type DocsResponse struct {
	Name      string        `json:"name"`
	Version   string        `json:"version"`
	BasePath  string        `json:"basePath"`
	Endpoints []EndpointDoc `json:"endpoints"`
}
