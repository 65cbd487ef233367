package analysts

import "context"

// roleSource is the slice of Store the Directory needs.
type roleSource interface {
	ByLevel(ctx context.Context, level string) ([]Role, error)
}

// Directory resolves escalation levels to notification addresses. When a
// level has no registered analyst it falls back to a single configured
// default address so escalations never vanish silently.
type Directory struct {
	roles       roleSource
	defaultAddr string
}

func NewDirectory(roles roleSource, defaultAddr string) *Directory {
	return &Directory{roles: roles, defaultAddr: defaultAddr}
}

func (d *Directory) EmailsForLevel(ctx context.Context, level string) ([]string, error) {
	roles, err := d.roles.ByLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []string{d.defaultAddr}, nil
	}
	emails := make([]string, 0, len(roles))
	for _, r := range roles {
		emails = append(emails, r.Email)
	}
	return emails, nil
}
