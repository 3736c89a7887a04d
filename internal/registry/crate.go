package registry

// Crate is the subset of crates.io crate metadata the pipeline needs.
//
// Repository is empty when the crate declares no repository.
type Crate struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Repository string `json:"repository"`
}

type crateResponse struct {
	Crate *struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Repository *string `json:"repository"`
	} `json:"crate"`
}

// FetchResult is one element of the FetchAll stream: either Crate or Err is set.
type FetchResult struct {
	Name  string
	Crate Crate
	Err   error
}
