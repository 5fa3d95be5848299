package common

// ToursPath is the remote collection under which tour documents live.
const ToursPath = "tours"

// TourPath returns the remote document path for the given share-code.
func TourPath(code string) string {
	return ToursPath + "/" + code
}
