package station

import (
	"math"
	"strings"
)

type List []Station

// Find returns the stations whose name contains query, ignoring case.
// Directory order is preserved.
func (l List) Find(query string) List {
	needle := strings.ToLower(query)

	var matches List
	for _, s := range l {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			matches = append(matches, s)
		}
	}
	return matches
}

func (l List) ByCode(code string) (Station, bool) {
	for _, s := range l {
		if strings.EqualFold(s.Code, code) {
			return s, true
		}
	}
	return Station{}, false
}

func (l List) FindClosest(latitude, longitude float64) (Station, float64, bool) {
	return FindClosest(latitude, longitude, l)
}

// FindClosest scans all stations and returns the nearest one with its
// distance in km. On equal distances the first station wins. ok is false
// when stations is empty.
func FindClosest(latitude, longitude float64, stations []Station) (Station, float64, bool) {
	var (
		closest  Station
		found    bool
		distance = math.Inf(1)
	)

	for _, s := range stations {
		d := s.DistanceTo(latitude, longitude)
		if d < distance {
			distance = d
			closest = s
			found = true
		}
	}

	return closest, distance, found
}
