package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/service/records"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrForbidden indicates the sender's role does not allow the command.
var ErrForbidden = errors.New("command not allowed for this role")

// RecordsAdapter is the write side used by logging commands.
type RecordsAdapter interface {
	RecordProduction(ctx context.Context, in records.ProductionInput) (models.ProductionRecord, error)
	RecordSale(ctx context.Context, in records.SaleInput) (models.SalesRecord, error)
}

// ReportingAdapter renders the current shift of one scheme.
type ReportingAdapter interface {
	CurrentReport(ctx context.Context) (models.ShiftReport, error)
	Summary(report models.ShiftReport) string
	StockSummary(report models.ShiftReport) string
}

// Sender identifies who issued a chat command.
type Sender struct {
	UserID string
	Phone  string
	Role   access.Role
}

// Dispatcher executes parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender Sender) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	records   RecordsAdapter
	dashboard ReportingAdapter
	inventory ReportingAdapter
	access    access.Checker
	logger    *zap.Logger
}

// NewService constructs a command dispatcher. /report reads the dashboard
// scheme and /stock the inventory scheme.
func NewService(recordsSvc RecordsAdapter, dashboard, inventory ReportingAdapter, checker access.Checker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:   recordsSvc,
		dashboard: dashboard,
		inventory: inventory,
		access:    checker,
		logger:    logger,
	}
}

var requiredCapability = map[models.CommandType]access.Capability{
	models.CommandProduce: access.LogProduction,
	models.CommandSale:    access.LogSales,
	models.CommandReturn:  access.LogSales,
	models.CommandStock:   access.ViewInventory,
	models.CommandReport:  access.ViewReports,
}

// HandleCommand runs cmd on behalf of sender and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender Sender) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender.Phone), zap.Any("args", cmd.Args))

	capability, ok := requiredCapability[cmd.Type]
	if !ok {
		return "", ErrUnsupportedCommand
	}
	if !s.access.Can(sender.Role, capability) {
		return "", ErrForbidden
	}

	switch cmd.Type {
	case models.CommandProduce:
		name, nums, err := splitProductArgs(cmd.Args, 1, 1)
		if err != nil {
			return "", err
		}
		rec, err := s.records.RecordProduction(ctx, records.ProductionInput{
			ProductID:  name,
			Quantity:   int(nums[0].IntPart()),
			RecordedBy: sender.UserID,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Production saved: %d x %s (%s shift).", rec.Quantity, name, rec.Shift), nil
	case models.CommandSale:
		name, nums, err := splitProductArgs(cmd.Args, 1, 3)
		if err != nil {
			return "", err
		}
		in := records.SaleInput{
			ProductID:  name,
			Quantity:   int(nums[0].IntPart()),
			RecordedBy: sender.UserID,
		}
		if len(nums) > 1 {
			in.UnitPrice = &nums[1]
		}
		if len(nums) > 2 {
			in.Discount = &nums[2]
		}
		rec, err := s.records.RecordSale(ctx, in)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Sale saved: %d x %s (%s shift).", rec.Quantity, name, rec.Shift), nil
	case models.CommandReturn:
		name, nums, err := splitProductArgs(cmd.Args, 1, 1)
		if err != nil {
			return "", err
		}
		rec, err := s.records.RecordSale(ctx, records.SaleInput{
			ProductID:  name,
			Quantity:   int(nums[0].IntPart()),
			Returned:   true,
			RecordedBy: sender.UserID,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Return saved: %d x %s (%s shift).", rec.Quantity, name, rec.Shift), nil
	case models.CommandStock:
		report, err := s.inventory.CurrentReport(ctx)
		if err != nil {
			return "", err
		}
		return s.inventory.StockSummary(report), nil
	case models.CommandReport:
		report, err := s.dashboard.CurrentReport(ctx)
		if err != nil {
			return "", err
		}
		return s.dashboard.Summary(report), nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// splitProductArgs reads "<product words...> <n1> [n2 ...]". The product
// name ends at the first numeric token; between minNums and maxNums numbers
// must follow. Quantities must be whole numbers.
func splitProductArgs(args []string, minNums, maxNums int) (string, []decimal.Decimal, error) {
	split := -1
	for i, arg := range args {
		if _, err := strconv.Atoi(arg); err == nil {
			split = i
			break
		}
	}
	if split <= 0 {
		return "", nil, ErrInvalidArguments
	}

	rest := args[split:]
	if len(rest) < minNums || len(rest) > maxNums {
		return "", nil, ErrInvalidArguments
	}

	nums := make([]decimal.Decimal, 0, len(rest))
	for _, arg := range rest {
		v, err := decimal.NewFromString(arg)
		if err != nil {
			return "", nil, ErrInvalidArguments
		}
		nums = append(nums, v)
	}
	return strings.Join(args[:split], " "), nums, nil
}
