package attendance

// SelectRecipients computes the (recipient, channels) pairs eligible
// for a notification of the given kind. Pure; roster order preserved.
//
// Started goes to every enrolled student. Expiring and Missed go to
// the complement of the present-set, so `present` must be a fresh
// snapshot: for Expiring it is read at fire time, which is what lets
// a late check-in suppress the reminder.
func SelectRecipients(kind EventKind, enrolled []Recipient, present map[string]struct{}) []Selection {
	sels := make([]Selection, 0, len(enrolled))
	for _, rcp := range enrolled {
		if kind != EventStarted {
			if _, ok := present[rcp.ID]; ok {
				continue
			}
		}
		chs := rcp.NotifyChannels()
		if len(chs) == 0 {
			continue
		}
		sels = append(sels, Selection{Recipient: rcp, Channels: chs})
	}
	return sels
}
