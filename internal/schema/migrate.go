package schema

// Version is the current stored-schema tag written to the migration marker.
const Version = "v2"

// MigrateOrders returns a copy of in with pre-v2 order records upgraded and
// reports how many records changed.
//
// A record lacking workAmount or totalAmount is legacy: its total (the
// amount mirror when totalAmount is absent) becomes the work amount, it gets
// no parts of ours, and its parts text moves to clientParts. Every other record only has its amount mirror refreshed
// from totalAmount. Running it on its own output changes nothing.
func MigrateOrders(in []OrderRecord) ([]OrderRecord, int) {
	out := make([]OrderRecord, len(in))
	changed := 0
	for i, r := range in {
		if r.WorkAmount == nil || r.TotalAmount == nil {
			work := r.Total()
			if work == 0 {
				work = numOr(r.WorkAmount, 0)
			}
			r.WorkAmount = ptr(Num(work))
			r.OurParts = ""
			r.OurPartsAmount = ptr(Num(0))
			if r.Parts != nil {
				r.ClientParts = *r.Parts
			} else {
				r.ClientParts = ""
			}
			r.TotalAmount = ptr(Num(work))
			r.Amount = ptr(Num(work))
			changed++
			out[i] = r
			continue
		}
		mirror := r.Total()
		if r.Amount == nil || int64(*r.Amount) != mirror {
			r.Amount = ptr(Num(mirror))
			changed++
		}
		out[i] = r
	}
	return out, changed
}
