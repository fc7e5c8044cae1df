package domain

// Origin represents where a candidate was discovered.
type Origin string

const (
	OriginStream    Origin = "stream"
	OriginPoll      Origin = "poll"
	OriginSynthetic Origin = "synthetic"
)

// String returns the string representation of Origin.
func (o Origin) String() string {
	return string(o)
}

// IsValid checks if the origin is a known value.
func (o Origin) IsValid() bool {
	return o == OriginStream || o == OriginPoll || o == OriginSynthetic
}

// IsSynthetic reports whether the candidate was fabricated as fallback content.
func (o Origin) IsSynthetic() bool {
	return o == OriginSynthetic
}
