package models

type Player struct {
	ConsumerID            ConsumerID `json:"consumerID"`
	BTag                  string     `json:"bTag"`
	RegistrationTimestamp *Timestamp `json:"registrationTimestamp"`
}

func (p Player) RegisteredAt() Timestamp {
	if p.RegistrationTimestamp == nil {
		return Timestamp{}
	}
	return *p.RegistrationTimestamp
}
