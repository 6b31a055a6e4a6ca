package store

type User struct {
	ID           int32
	Email        string
	Nickname     string
	PasswordHash string
	CreatedTs    int64
}

type FindUser struct {
	ID    *int32
	Email *string
}

type DeleteUser struct {
	ID int32
}
