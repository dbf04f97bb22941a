package utils

const (
	HEADER_REQUESTED_WITH = "X-Requested-With"
	HEADER_ACCEPT         = "Accept"
	HEADER_CONTENT_TYPE   = "Content-Type"

	XML_HTTP_REQUEST = "XMLHttpRequest"
	MIME_JSON        = "application/json"
)
