package tenant

type CreatedEvent struct {
	Result *Tenant
}
