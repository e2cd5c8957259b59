package match

// Directory is an immutable snapshot of the known recipients, loaded once at
// process start. Concurrent scans need no locking because nothing mutates it
// after construction; directory management is a separate concern and not part
// of this service.
type Directory struct {
	recipients []Recipient
}

// NewDirectory copies the given recipients into a read-only snapshot.
func NewDirectory(recipients []Recipient) *Directory {
	snapshot := make([]Recipient, len(recipients))
	copy(snapshot, recipients)
	return &Directory{recipients: snapshot}
}

// All returns the scan slice. Callers must not modify it; filtering on the
// active flag is the engine's job, not the directory's.
func (d *Directory) All() []Recipient {
	return d.recipients
}

// Len returns the number of recipients in the snapshot, active or not.
func (d *Directory) Len() int {
	return len(d.recipients)
}

// SeedDirectory returns the bootstrap recipient set used when no external
// directory source is configured.
func SeedDirectory() *Directory {
	return NewDirectory([]Recipient{
		{ID: "ngo001", Name: "Helping Hands", Lat: 12.933, Lon: 77.610, Area: "Koramangala, Bangalore", Active: true},
		{ID: "ngo002", Name: "Food For All", Lat: 12.920, Lon: 77.600, Area: "Indiranagar, Bangalore", Active: true},
		{ID: "ngo003", Name: "Kindness Kitchen", Lat: 13.000, Lon: 77.700, Area: "HSR Layout, Bangalore", Active: true},
	})
}
