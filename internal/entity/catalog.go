package entity

// CatalogMeme is one entry of the remote meme catalog.
type CatalogMeme struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BoxCount int    `json:"box_count"`
}

type CatalogResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Memes []CatalogMeme `json:"memes"`
	} `json:"data"`
}
