package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rmcloud-dev/rmcloud/internal/domain"
	internal_errors "github.com/rmcloud-dev/rmcloud/internal/errors"
)

type userCommand struct {
	Show     showCmd     `command:"show" description:"print a user record"`
	Add      addCmd      `command:"add" description:"create a user"`
	Edit     editCmd     `command:"edit" description:"replace a user's password and flags"`
	Delete   deleteCmd   `command:"delete" description:"remove a user and their data"`
	Generate generateCmd `command:"generate" description:"issue a one-time access code"`
	Validate validateCmd `command:"validate" description:"check an access code"`
}

type showCmd struct {
	Args struct {
		Email string `positional-arg-name:"email"`
	} `positional-args:"true" required:"true"`
}

func (cmd *showCmd) Execute(args []string) error {
	stores, err := loadStores()
	if err != nil {
		return err
	}
	email, err := domain.NewEmail(cmd.Args.Email)
	if err != nil {
		return err
	}
	user, err := stores.Users.Get(email)
	if err != nil {
		return err
	}
	fmt.Printf("email: %s\npassword: %s\nis_admin: %t\nsync15: %t\n",
		user.Email.String(), user.Password, user.IsAdmin, user.Sync15)
	return nil
}

type addCmd struct {
	Args struct {
		Email    string `positional-arg-name:"email"`
		Password string `positional-arg-name:"password"`
		IsAdmin  string `positional-arg-name:"is_admin"`
		Sync15   string `positional-arg-name:"sync15"`
	} `positional-args:"true" required:"true"`
}

func (cmd *addCmd) Execute(args []string) error {
	stores, err := loadStores()
	if err != nil {
		return err
	}
	email, isAdmin, sync15, err := parseUserArgs(cmd.Args.Email, cmd.Args.IsAdmin, cmd.Args.Sync15)
	if err != nil {
		return err
	}
	if _, err := stores.Users.Create(email, cmd.Args.Password, isAdmin, sync15); err != nil {
		return err
	}
	fmt.Println("User created")
	return nil
}

type editCmd struct {
	Args struct {
		Email    string `positional-arg-name:"email"`
		Password string `positional-arg-name:"password"`
		IsAdmin  string `positional-arg-name:"is_admin"`
		Sync15   string `positional-arg-name:"sync15"`
	} `positional-args:"true" required:"true"`
}

func (cmd *editCmd) Execute(args []string) error {
	stores, err := loadStores()
	if err != nil {
		return err
	}
	email, isAdmin, sync15, err := parseUserArgs(cmd.Args.Email, cmd.Args.IsAdmin, cmd.Args.Sync15)
	if err != nil {
		return err
	}
	if err := stores.Users.Edit(email, cmd.Args.Password, isAdmin, sync15); err != nil {
		return err
	}
	fmt.Println("User edited")
	return nil
}

type deleteCmd struct {
	Args struct {
		Email string `positional-arg-name:"email"`
	} `positional-args:"true" required:"true"`
}

func (cmd *deleteCmd) Execute(args []string) error {
	stores, err := loadStores()
	if err != nil {
		return err
	}
	email, err := domain.NewEmail(cmd.Args.Email)
	if err != nil {
		return err
	}
	if err := stores.Users.Delete(email); err != nil {
		return err
	}
	fmt.Println("User removed")
	return nil
}

type generateCmd struct {
	Args struct {
		Email string `positional-arg-name:"email"`
	} `positional-args:"true" required:"true"`
}

func (cmd *generateCmd) Execute(args []string) error {
	stores, err := loadStores()
	if err != nil {
		return err
	}
	email, err := domain.NewEmail(cmd.Args.Email)
	if err != nil {
		return err
	}
	code, err := stores.Codes.Issue(email)
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}

type validateCmd struct {
	Args struct {
		Email string `positional-arg-name:"email"`
		Code  string `positional-arg-name:"code"`
	} `positional-args:"true" required:"true"`
}

func (cmd *validateCmd) Execute(args []string) error {
	stores, err := loadStores()
	if err != nil {
		return err
	}
	email, err := domain.NewEmail(cmd.Args.Email)
	if err != nil {
		return err
	}

	switch err := stores.Codes.Validate(email, cmd.Args.Code); {
	case err == nil:
		fmt.Println("valid")
	case errors.Is(err, internal_errors.ErrCodeExpired):
		fmt.Println("expired")
	case errors.Is(err, internal_errors.ErrCodeNotValid),
		errors.Is(err, internal_errors.ErrUserNotFound):
		fmt.Println("not valid")
	default:
		return err
	}
	return nil
}

func parseUserArgs(emailStr, isAdminStr, sync15Str string) (domain.Email, bool, bool, error) {
	email, err := domain.NewEmail(emailStr)
	if err != nil {
		return domain.Email{}, false, false, err
	}
	isAdmin, err := strconv.ParseBool(isAdminStr)
	if err != nil {
		return domain.Email{}, false, false, fmt.Errorf("is_admin must be true or false, got %q", isAdminStr)
	}
	sync15, err := strconv.ParseBool(sync15Str)
	if err != nil {
		return domain.Email{}, false, false, fmt.Errorf("sync15 must be true or false, got %q", sync15Str)
	}
	return email, isAdmin, sync15, nil
}
