// Package twin is an in-memory stand-in for a JSONPlaceholder-style posts
// service.
package twin

// Post is one record of the /posts collection.
type Post struct {
	ID      int    `json:"id"`
	OwnerID int    `json:"userId"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// PostInput is the payload accepted by POST and PUT.
type PostInput struct {
	OwnerID int    `json:"userId" validate:"required,gt=0"`
	Title   string `json:"title" validate:"required,max=512"`
	Body    string `json:"body" validate:"max=10000"`
}

// PostPatch is the payload accepted by PATCH. Absent fields are left alone.
type PostPatch struct {
	OwnerID *int    `json:"userId,omitempty" validate:"omitempty,gt=0"`
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1,max=512"`
	Body    *string `json:"body,omitempty" validate:"omitempty,max=10000"`
}

func (p PostPatch) apply(post Post) Post {
	if p.OwnerID != nil {
		post.OwnerID = *p.OwnerID
	}
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Body != nil {
		post.Body = *p.Body
	}
	return post
}
