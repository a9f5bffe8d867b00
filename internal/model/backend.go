package model

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Success  bool   `json:"success"`
}

// RefreshResult is the backend's answer to a cache refresh.
type RefreshResult struct {
	Message         string `json:"message"`
	CategoriesCount int    `json:"categories_count"`
	ItemsCount      int    `json:"items_count"`
	Success         bool   `json:"success"`
}

type HealthStatus struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

type CacheStats struct {
	Categories      []string       `json:"categories"`
	CategoriesCount int            `json:"categories_count"`
	ItemsCount      int            `json:"items_count"`
	LastUpdated     *string        `json:"last_updated"`
	ItemsByCategory map[string]int `json:"items_by_category"`
}
