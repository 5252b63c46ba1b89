package fetch

import "errors"

var (
	ErrStatus    = errors.New("unexpected http status")
	ErrNoPages   = errors.New("no draw page could be fetched")
	ErrNoRanking = errors.New("no ranking list available")
)
