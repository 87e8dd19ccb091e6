package checkout

type Input struct {
	Method string
	// Plan is the query string plan; it wins over the body's.
	Plan string
	// Body is the decoded JSON body of a POST, nil otherwise.
	Body map[string]interface{}

	ForwardedProto string
	ForwardedHost  string
	Host           string
}

type Output struct {
	OK  bool   `json:"ok"`
	URL string `json:"url"`
	ID  string `json:"id"`
}
