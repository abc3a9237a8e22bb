package chain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"rhystmorgan/likeWallet/internal/metrics"
)

type Client struct {
	httpClient *http.Client
	config     Config
	cache      *BalanceCache
	logger     *logrus.Logger
	mu         sync.RWMutex
	status     NetworkStatus
}

const (
	DefaultMainnetLCD     = "https://mainnet-node.like.co"
	DefaultTestnetLCD     = "https://node.testnet.like.co"
	DefaultMainnetChainID = "likecoin-mainnet-2"
	DefaultTestnetChainID = "likecoin-public-testnet-5"
	DefaultDenom          = "nanolike"
	DefaultDisplayDenom   = "LIKE"
	DefaultFractionDigits = 9
	DefaultBech32Prefix   = "like"
	DefaultGasPrice       = "10"
	DefaultGasAdjustment  = 1.5
	DefaultGas            = uint64(300000)
	DefaultTimeout        = 30 * time.Second
	DefaultRetryCount     = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultCacheTTL       = 30 * time.Second

	CacheDisabled time.Duration = -1
)

// WithDefaults fills every zero field with the network's default.
func (c Config) WithDefaults() (Config, error) {
	if c.Network == "" {
		c.Network = MainNet
	}
	switch c.Network {
	case MainNet:
		if c.LCDURL == "" {
			c.LCDURL = DefaultMainnetLCD
		}
		if c.ChainID == "" {
			c.ChainID = DefaultMainnetChainID
		}
	case TestNet:
		if c.LCDURL == "" {
			c.LCDURL = DefaultTestnetLCD
		}
		if c.ChainID == "" {
			c.ChainID = DefaultTestnetChainID
		}
	default:
		return c, fmt.Errorf("unknown network: %s", c.Network)
	}

	if c.Denom == "" {
		c.Denom = DefaultDenom
	}
	if c.DisplayDenom == "" {
		c.DisplayDenom = DefaultDisplayDenom
	}
	if c.FractionDigits == 0 {
		c.FractionDigits = DefaultFractionDigits
	}
	if c.Bech32Prefix == "" {
		c.Bech32Prefix = DefaultBech32Prefix
	}
	if c.GasPrice == "" {
		c.GasPrice = DefaultGasPrice
	}
	if c.GasAdjustment == 0 {
		c.GasAdjustment = DefaultGasAdjustment
	}
	if c.DefaultGas == 0 {
		c.DefaultGas = DefaultGas
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	return c, nil
}

func (c Config) DenomInfo() DenomInfo {
	return DenomInfo{
		Denom:          c.Denom,
		DisplayDenom:   c.DisplayDenom,
		FractionDigits: c.FractionDigits,
	}
}

// NewClient creates a client and verifies the LCD is reachable.
func NewClient(ctx context.Context, config Config, logger *logrus.Logger) (*Client, error) {
	c, err := NewClientWithoutCheck(config, logger)
	if err != nil {
		return nil, err
	}

	if err := c.checkConnection(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func NewClientWithoutCheck(config Config, logger *logrus.Logger) (*Client, error) {
	config, err := config.WithDefaults()
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		cache:      NewBalanceCache(config.CacheTTL),
		logger:     logger,
		status: NetworkStatus{
			LCDURL:      config.LCDURL,
			LastChecked: time.Now(),
		},
	}, nil
}

func (c *Client) Config() Config {
	return c.config
}

// StartCacheCleanup evicts stale balances until ctx is cancelled.
func (c *Client) StartCacheCleanup(ctx context.Context) {
	c.cache.StartCleanupRoutine(ctx, 5*time.Minute)
}

func (c *Client) checkConnection(ctx context.Context) error {
	res, err := c.get(ctx, "blocks_latest", "/cosmos/base/tendermint/v1beta1/blocks/latest", nil)
	if err != nil {
		c.updateStatus(false, 0, "")
		return NewNetworkError("failed to connect to LikeCoin chain", err)
	}

	height := res.Get("block.header.height").Uint()
	chainID := res.Get("block.header.chain_id").String()
	c.updateStatus(true, height, chainID)

	if chainID != "" && chainID != c.config.ChainID {
		c.logger.WithFields(logrus.Fields{
			"expected": c.config.ChainID,
			"actual":   chainID,
		}).Warn("LCD reports a different chain id")
	}
	return nil
}

// CheckConnection refreshes the cached network status.
func (c *Client) CheckConnection(ctx context.Context) error {
	return c.checkConnection(ctx)
}

func (c *Client) updateStatus(connected bool, blockHeight uint64, chainID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.Connected = connected
	c.status.BlockHeight = blockHeight
	c.status.ChainID = chainID
	c.status.LastChecked = time.Now()
}

func (c *Client) GetStatus() NetworkStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.status
}

func (c *Client) GetAccount(ctx context.Context, address string) (*AccountInfo, error) {
	res, err := c.getWithRetry(ctx, "accounts", "/cosmos/auth/v1beta1/accounts/"+address, nil)
	if err != nil {
		return nil, err
	}

	account := res.Get("account")
	// vesting accounts nest the base account
	if base := account.Get("base_vesting_account.base_account"); base.Exists() {
		account = base
	}

	accountNumber, err := strconv.ParseUint(account.Get("account_number").String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account number: %w", err)
	}

	sequence, err := strconv.ParseUint(account.Get("sequence").String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sequence: %w", err)
	}

	return &AccountInfo{
		Address:       address,
		AccountNumber: accountNumber,
		Sequence:      sequence,
	}, nil
}

func (c *Client) GetBalance(ctx context.Context, address string) (sdkmath.Int, error) {
	if cached, found := c.cache.Get(address, c.config.Denom); found {
		return cached, nil
	}

	query := url.Values{"denom": []string{c.config.Denom}}
	res, err := c.getWithRetry(ctx, "balance", "/cosmos/bank/v1beta1/balances/"+address+"/by_denom", query)
	if err != nil {
		return sdkmath.Int{}, err
	}

	amount, err := parseInt(res.Get("balance.amount").String())
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to parse balance: %w", err)
	}

	c.cache.Put(address, c.config.Denom, amount)
	return amount, nil
}

func (c *Client) RefreshBalance(ctx context.Context, address string) (sdkmath.Int, error) {
	c.cache.Invalidate(address)
	return c.GetBalance(ctx, address)
}

func (c *Client) InvalidateCache(address string) {
	c.cache.Invalidate(address)
}

func (c *Client) GetDelegations(ctx context.Context, delegator string) ([]DelegationResponse, error) {
	query := url.Values{"pagination.limit": []string{"200"}}
	res, err := c.getWithRetry(ctx, "delegations", "/cosmos/staking/v1beta1/delegations/"+delegator, query)
	if err != nil {
		return nil, err
	}

	var delegations []DelegationResponse
	for _, item := range res.Get("delegation_responses").Array() {
		balance, err := parseInt(item.Get("balance.amount").String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse delegation balance: %w", err)
		}
		delegations = append(delegations, DelegationResponse{
			DelegatorAddress: item.Get("delegation.delegator_address").String(),
			ValidatorAddress: item.Get("delegation.validator_address").String(),
			Shares:           item.Get("delegation.shares").String(),
			Balance:          balance,
		})
	}
	return delegations, nil
}

func (c *Client) GetValidators(ctx context.Context) ([]ValidatorResponse, error) {
	query := url.Values{
		"status":           []string{"BOND_STATUS_BONDED"},
		"pagination.limit": []string{"300"},
	}
	res, err := c.getWithRetry(ctx, "validators", "/cosmos/staking/v1beta1/validators", query)
	if err != nil {
		return nil, err
	}

	var validators []ValidatorResponse
	for _, item := range res.Get("validators").Array() {
		tokens, err := parseInt(item.Get("tokens").String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse validator tokens: %w", err)
		}
		validators = append(validators, ValidatorResponse{
			OperatorAddress: item.Get("operator_address").String(),
			Moniker:         item.Get("description.moniker").String(),
			Website:         item.Get("description.website").String(),
			Jailed:          item.Get("jailed").Bool(),
			Status:          item.Get("status").String(),
			Tokens:          tokens,
			CommissionRate:  item.Get("commission.commission_rates.rate").String(),
		})
	}
	return validators, nil
}

// Simulate returns the gas used by txBytes. Simulation is not retried since
// a rejection is usually deterministic.
func (c *Client) Simulate(ctx context.Context, txBytes []byte) (uint64, error) {
	body := map[string]string{"tx_bytes": base64.StdEncoding.EncodeToString(txBytes)}
	res, err := c.post(ctx, "simulate", "/cosmos/tx/v1beta1/simulate", body)
	if err != nil {
		return 0, NewSimulationError(err)
	}

	gasUsed := res.Get("gas_info.gas_used").Uint()
	if gasUsed == 0 {
		return 0, NewSimulationError(fmt.Errorf("simulation returned no gas usage"))
	}
	return gasUsed, nil
}

func (c *Client) Broadcast(ctx context.Context, txBytes []byte) (*BroadcastResult, error) {
	body := map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     "BROADCAST_MODE_SYNC",
	}
	res, err := c.post(ctx, "broadcast", "/cosmos/tx/v1beta1/txs", body)
	if err != nil {
		metrics.IncTxBroadcast("error")
		return nil, NewNetworkError("failed to broadcast transaction", err)
	}

	txResponse := res.Get("tx_response")
	result := &BroadcastResult{
		TxHash: txResponse.Get("txhash").String(),
		Code:   uint32(txResponse.Get("code").Uint()),
		RawLog: txResponse.Get("raw_log").String(),
		Height: txResponse.Get("height").Int(),
	}

	if result.Code != 0 {
		metrics.IncTxBroadcast("rejected")
		return result, NewTransactionFailedError(result.TxHash, result.RawLog)
	}

	metrics.IncTxBroadcast("success")
	return result, nil
}

func (c *Client) getWithRetry(ctx context.Context, endpoint, path string, query url.Values) (gjson.Result, error) {
	var lastErr error

	for attempt := 0; attempt < c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return gjson.Result{}, ClassifyError(ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		res, err := c.get(ctx, endpoint, path, query)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if chainErr := ClassifyError(err); chainErr != nil && !chainErr.IsRetryable() {
			break
		}

		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt + 1,
		}).WithError(err).Debug("LCD request failed, retrying")
	}

	return gjson.Result{}, ClassifyError(lastErr)
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (gjson.Result, error) {
	target := c.config.LCDURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint)
}

func (c *Client) post(ctx context.Context, endpoint, path string, body interface{}) (gjson.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.LCDURL+path, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) (gjson.Result, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncLCDRequest(endpoint, "error")
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	metrics.IncLCDRequest(endpoint, strconv.Itoa(resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(data, "message").String()
		if message == "" {
			message = string(data)
		}
		return gjson.Result{}, newHTTPError(endpoint, resp.StatusCode, message)
	}

	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%s returned invalid JSON", endpoint)
	}

	return gjson.ParseBytes(data), nil
}

func parseInt(s string) (sdkmath.Int, error) {
	if s == "" {
		return sdkmath.ZeroInt(), nil
	}
	amount, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid integer %q", s)
	}
	return amount, nil
}
