package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Catalog / lookup errors
var (
	// ErrUnknownCommodity is returned when a commodity name does not exist in
	// the catalog. Services may wrap it with a "did you mean" suggestion.
	ErrUnknownCommodity = errors.New("unknown commodity")

	// ErrUnknownVenue is returned when a venue name or index is out of range.
	ErrUnknownVenue = errors.New("unknown venue")

	// ErrUnknownEquipment is returned when an equipment id is not in the catalog.
	ErrUnknownEquipment = errors.New("unknown equipment item")

	// ErrUnknownRecipe is returned when a fabrication recipe key is not in the catalog.
	ErrUnknownRecipe = errors.New("unknown fabrication recipe")
)

// Trade / ledger errors
var (
	// ErrInvalidQuantity is returned for zero or negative quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInsufficientFunds is returned when a purchase would push cash below
	// the overdraft floor, or a fee cannot be paid.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientCargo is returned when selling or shipping more units than held.
	ErrInsufficientCargo = errors.New("insufficient cargo")

	// ErrInsufficientCapacity is returned when a claim or purchase would exceed
	// the ship's cargo capacity.
	ErrInsufficientCapacity = errors.New("insufficient cargo capacity")

	// ErrInsufficientResources is returned when fabrication inputs are missing.
	ErrInsufficientResources = errors.New("insufficient input resources")

	// ErrMarketSoldOut is returned when buying a commodity whose local book is
	// empty; confirmation cannot help until supply returns.
	ErrMarketSoldOut = errors.New("market has no stock of this commodity")

	// ErrStockConfirmRequired is returned when a buy exceeds market stock; the
	// caller must re-submit with the confirm flag to buy the available amount.
	ErrStockConfirmRequired = errors.New("requested quantity exceeds market stock: confirmation required")

	// ErrTaxConfirmRequired is returned on a repeat same-day trade of the same
	// commodity at the same venue; the caller must confirm the 5% tax.
	ErrTaxConfirmRequired = errors.New("repeat trade tax applies: confirmation required")

	// ErrNothingToRepair is returned when hull or laser is already at maximum.
	ErrNothingToRepair = errors.New("already at maximum integrity")

	// ErrLaserRequired is returned when a laser operation is attempted without
	// owning any mining laser.
	ErrLaserRequired = errors.New("no mining laser installed")

	// ErrEquipmentOwned is returned when buying an equipment item already owned.
	ErrEquipmentOwned = errors.New("equipment already installed")

	// ErrCapacityMaxed is returned when a cargo bay expansion would exceed the
	// phase capacity ceiling.
	ErrCapacityMaxed = errors.New("cargo capacity is at the phase maximum")

	// ErrNoWarrant is returned when clearing a bounty with no warrants active.
	ErrNoWarrant = errors.New("no active warrants")
)

// Policy-limit errors
var (
	// ErrLoanLimit is returned when a pilot already holds the maximum number of loans.
	ErrLoanLimit = errors.New("maximum concurrent loans reached")

	// ErrLoanAlreadyToday is returned on a second loan draw within the same day.
	ErrLoanAlreadyToday = errors.New("only one loan draw allowed per day")

	// ErrLoanFirmHeld is returned when a loan from the same firm is already open.
	ErrLoanFirmHeld = errors.New("a loan from this firm is already outstanding")

	// ErrDepositWhileInDebt is returned when opening a term deposit with any
	// active loan outstanding.
	ErrDepositWhileInDebt = errors.New("term deposits are blocked while loans are outstanding")

	// ErrInvalidTerm is returned for a deposit term outside 1–3 days.
	ErrInvalidTerm = errors.New("deposit term must be between 1 and 3 days")

	// ErrFabricationUsed is returned when a recipe was already run today.
	ErrFabricationUsed = errors.New("fabrication line already used today")

	// ErrContractLimit is returned when accepting a contract at the phase
	// concurrency limit.
	ErrContractLimit = errors.New("active contract limit reached")

	// ErrVenueBanned is returned when trading with or travelling to settle at a
	// venue under an active trade ban.
	ErrVenueBanned = errors.New("venue is under an active trade ban")
)

// Contract / shipping errors
var (
	// ErrContractNotFound is returned when no contract matches the given id.
	ErrContractNotFound = errors.New("contract not found")

	// ErrContractNotActive is returned when settling a contract that is not active.
	ErrContractNotActive = errors.New("contract is not active")

	// ErrContractShortStock is returned when the destination warehouse does not
	// hold enough arrived stock to settle.
	ErrContractShortStock = errors.New("insufficient arrived warehouse stock for contract")

	// ErrShipmentNotFound is returned when no warehouse entry exists for the
	// venue/commodity pair.
	ErrShipmentNotFound = errors.New("no warehouse shipment found")

	// ErrShipmentNotArrived is returned when claiming or settling against a
	// shipment still in transit.
	ErrShipmentNotArrived = errors.New("shipment has not arrived yet")

	// ErrShipmentReserved is returned when touching stock staged for a contract.
	ErrShipmentReserved = errors.New("shipment is reserved for a contract")

	// ErrLoanOfferNotFound is returned when drawing a loan offer that expired.
	ErrLoanOfferNotFound = errors.New("loan offer not found")

	// ErrLoanNotFound is returned when repaying an unknown loan.
	ErrLoanNotFound = errors.New("loan not found")
)

// Travel / encounter errors
var (
	// ErrSameVenue is returned when jumping to the current venue (use the
	// same-venue stay operation instead).
	ErrSameVenue = errors.New("destination is the current venue")

	// ErrInsufficientFuel is returned when cargo fuel does not cover the jump.
	ErrInsufficientFuel = errors.New("insufficient fuel for jump")

	// ErrInsufficientCells is returned when mining was requested without enough
	// power cells aboard.
	ErrInsufficientCells = errors.New("insufficient power cells for mining run")

	// ErrEncounterPending is returned when any operation is attempted while an
	// encounter awaits resolution.
	ErrEncounterPending = errors.New("an encounter is awaiting resolution")

	// ErrNoEncounterPending is returned when resolving with no encounter open.
	ErrNoEncounterPending = errors.New("no encounter is awaiting resolution")

	// ErrInvalidDecision is returned when the decision is not in the
	// encounter's decision set.
	ErrInvalidDecision = errors.New("invalid decision for this encounter")
)

// Session / persistence errors
var (
	// ErrSessionNotFound is returned when no live session matches the id.
	ErrSessionNotFound = errors.New("game session not found")

	// ErrGameOver is returned when commanding a finished game.
	ErrGameOver = errors.New("game is over")

	// ErrSaveNotFound is returned when a pilot has no stored save.
	ErrSaveNotFound = errors.New("no saved game found")

	// ErrSaveFailed is returned when the save store rejected the write. The
	// game continues; the caller is expected to surface a warning.
	ErrSaveFailed = errors.New("saving the game failed")
)

// Auth errors
var (
	// ErrPilotNotFound is returned when no pilot matches the given criteria.
	ErrPilotNotFound = errors.New("pilot not found")

	// ErrCallsignTaken is returned on registration when the callsign exists.
	ErrCallsignTaken = errors.New("callsign is already taken")

	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPilotInactive is returned when a suspended pilot attempts an action.
	ErrPilotInactive = errors.New("pilot account is inactive")

	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the authenticated pilot lacks access.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenExpired is returned when a JWT has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// validationErrors collects rejections caused by bad input or insufficient
// holdings. They always leave the game state untouched.
var validationErrors = []error{
	ErrInvalidQuantity,
	ErrUnknownCommodity,
	ErrUnknownVenue,
	ErrUnknownEquipment,
	ErrUnknownRecipe,
	ErrInsufficientFunds,
	ErrInsufficientCargo,
	ErrInsufficientCapacity,
	ErrInsufficientResources,
	ErrMarketSoldOut,
	ErrInsufficientFuel,
	ErrInsufficientCells,
	ErrInvalidTerm,
	ErrInvalidDecision,
	ErrSameVenue,
}

// IsValidation returns true when err (or any error in its chain) is a local
// input/holdings rejection. These map to HTTP 400/402 responses.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// policyErrors collects rejections caused by daily/phase policy caps rather
// than missing resources.
var policyErrors = []error{
	ErrLoanLimit,
	ErrLoanAlreadyToday,
	ErrLoanFirmHeld,
	ErrDepositWhileInDebt,
	ErrFabricationUsed,
	ErrContractLimit,
	ErrVenueBanned,
	ErrCapacityMaxed,
}

// IsPolicyLimit returns true for policy-cap rejections (HTTP 409).
func IsPolicyLimit(err error) bool {
	for _, target := range policyErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true when err is one of the "entity not found" errors.
func IsNotFound(err error) bool {
	notFoundErrors := []error{
		ErrContractNotFound,
		ErrShipmentNotFound,
		ErrLoanOfferNotFound,
		ErrLoanNotFound,
		ErrSessionNotFound,
		ErrSaveNotFound,
		ErrPilotNotFound,
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConfirmRequired returns true when the operation is valid but needs an
// explicit player confirmation before it applies (stock cap, repeat-trade tax).
func IsConfirmRequired(err error) bool {
	return errors.Is(err, ErrStockConfirmRequired) || errors.Is(err, ErrTaxConfirmRequired)
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidCredentials,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
