package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/magabrotheeeer/tecnico-directory/internal/client/api"
	"github.com/magabrotheeeer/tecnico-directory/internal/client/session"
	"github.com/magabrotheeeer/tecnico-directory/internal/models"
)

const usage = `usage: directory-cli <command> [args]

commands:
  login [-email EMAIL]     sign in and remember the session
  logout                   forget the session
  whoami                   show the cached profile
  bio TEXT                 replace your bio
  tecnicos [ID]            list technicians or show one
  register [flags]         create an account (see register -h)
`

// TecnicoAPI — вызовы, которые CLI делает напрямую, минуя сессию.
type TecnicoAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (*models.Usuario, error)
	ListTecnicos(ctx context.Context, token string) ([]models.Usuario, error)
	GetTecnico(ctx context.Context, token string, id int) (*models.Usuario, error)
}

type cli struct {
	api     TecnicoAPI
	session *session.Session
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	reader *bufio.Reader
}

func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(c.errOut, usage)
		return 2
	}
	if err := c.session.Init(ctx); err != nil {
		fmt.Fprintf(c.errOut, "error: %s\n", err)
		return 1
	}

	var err error
	switch args[0] {
	case "login":
		err = c.login(ctx, args[1:])
	case "register":
		err = c.register(ctx, args[1:])
	case "logout":
		err = c.logout(ctx)
	case "whoami":
		err = c.gated(func() error { return c.whoami(ctx) })
	case "bio":
		err = c.gated(func() error { return c.bio(ctx, args[1:]) })
	case "tecnicos":
		err = c.gated(func() error { return c.tecnicos(ctx, args[1:]) })
	case "help", "-h", "--help":
		fmt.Fprint(c.out, usage)
		return 0
	default:
		fmt.Fprintf(c.errOut, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		c.report(err)
		return 1
	}
	return 0
}

// gated пускает к команде только при активной сессии, иначе отправляет на login.
func (c *cli) gated(fn func() error) error {
	if err := c.session.RequireAuthenticated(); err != nil {
		return err
	}
	return fn()
}

func (c *cli) report(err error) {
	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		fmt.Fprintln(c.errOut, "not logged in, run: directory-cli login")
	case errors.Is(err, models.ErrUnauthorized) && c.session.State() == session.StateUnauthenticated:
		msg, _ := api.Message(err)
		fmt.Fprintf(c.errOut, "%s, run: directory-cli login\n", msg)
	default:
		if msg, ok := api.Message(err); ok {
			fmt.Fprintf(c.errOut, "error: %s\n", msg)
			return
		}
		fmt.Fprintf(c.errOut, "error: %s\n", err)
	}
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		v, err := c.prompt("email: ")
		if err != nil {
			return err
		}
		*email = v
	}
	senha, err := c.promptPassword("senha: ")
	if err != nil {
		return err
	}

	u, err := c.session.Login(ctx, *email, senha)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logado com sucesso. Olá, %s!\n", u.Nome)
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "logged out")
	return nil
}

func (c *cli) whoami(ctx context.Context) error {
	u, err := c.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	printUsuario(c.out, u)
	return nil
}

func (c *cli) bio(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("bio text is required")
	}
	u, err := c.session.UpdateBio(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printUsuario(c.out, u)
	return nil
}

func (c *cli) tecnicos(ctx context.Context, args []string) error {
	token, err := c.session.Token()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid id %q", args[0])
		}
		u, err := c.api.GetTecnico(ctx, token, id)
		if err != nil {
			c.session.Unauthorized(ctx, err)
			return err
		}
		printUsuario(c.out, u)
		return nil
	}

	list, err := c.api.ListTecnicos(ctx, token)
	if err != nil {
		c.session.Unauthorized(ctx, err)
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.out, "no technicians yet")
		return nil
	}
	for _, u := range list {
		fmt.Fprintf(c.out, "%d\t%s\t%s\n", u.ID, u.Nome, u.Zap)
	}
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	req := api.RegisterRequest{}
	fs.StringVar(&req.Nome, "nome", "", "full name")
	fs.StringVar(&req.Email, "email", "", "email")
	fs.IntVar(&req.Idade, "idade", 0, "age")
	fs.StringVar(&req.Zap, "zap", "", "WhatsApp number, digits only")
	rel := fs.String("relacionamento", string(models.Solteiro), "SOLTEIRO or CASADO")
	fs.BoolVar(&req.Tecnico, "tecnico", false, "register as technician")
	fs.StringVar(&req.Avatar, "avatar", "", "avatar URL")
	fs.StringVar(&req.Bio, "bio", "", "short bio")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.Relacionamento = models.Relacionamento(strings.ToUpper(*rel))

	senha, err := c.promptPassword("senha: ")
	if err != nil {
		return err
	}
	req.Senha = senha

	u, err := c.api.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "registered usuario %d, now run: directory-cli login -email %s\n", u.ID, u.Email)
	return nil
}

func (c *cli) prompt(label string) (string, error) {
	fmt.Fprint(c.errOut, label)
	if c.reader == nil {
		c.reader = bufio.NewReader(c.in)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) promptPassword(label string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.errOut, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.errOut)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return c.prompt(label)
}

func printUsuario(w io.Writer, u *models.Usuario) {
	role := "usuario"
	if u.Tecnico {
		role = "tecnico"
	}
	fmt.Fprintf(w, "id:             %d\n", u.ID)
	fmt.Fprintf(w, "nome:           %s\n", u.Nome)
	fmt.Fprintf(w, "email:          %s\n", u.Email)
	fmt.Fprintf(w, "role:           %s\n", role)
	fmt.Fprintf(w, "zap:            %s\n", u.Zap)
	fmt.Fprintf(w, "idade:          %d\n", u.Idade)
	fmt.Fprintf(w, "relacionamento: %s\n", u.Relacionamento)
	fmt.Fprintf(w, "bio:            %s\n", u.Bio)
}
