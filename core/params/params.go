package params

import "tablepick/core/constants"

// QueryParams carries pagination values parsed by controllers.
type QueryParams struct {
	Page  int
	Limit int
}

func (p QueryParams) Normalize() QueryParams {
	if p.Page < 1 {
		p.Page = constants.DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = constants.DefaultLimit
	}
	if p.Limit > constants.MaxLimit {
		p.Limit = constants.MaxLimit
	}
	return p
}

func (p QueryParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
