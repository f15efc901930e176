package request

// SignUpRequest is the body for POST /api/v1/auth/signup
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the body for POST /api/v1/auth/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SubmitJobRequest is the body for POST /api/v1/demo/jobs
type SubmitJobRequest struct {
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
}
